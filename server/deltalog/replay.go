package deltalog

import (
	"fmt"

	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/share"
)

// Package-specific error codes for snapshot replay
var (
	ErrVersionUnavailable  = errors.MustNewCode("deltalog.version_unavailable")
	ErrTableNotInitialized = errors.MustNewCode("deltalog.table_not_initialized")
	ErrProtocolUnsupported = errors.MustNewCode("deltalog.protocol_unsupported")
	ErrInvalidVersion      = errors.MustNewCode("deltalog.invalid_version")
)

// MaxSupportedReaderVersion is the newest log protocol this server can
// interpret. A snapshot demanding more fails closed.
const MaxSupportedReaderVersion = 1

// ReplayOptions controls a snapshot computation.
//
// TargetVersion selects a historical version; nil means latest. Prior is an
// optional checkpoint: a snapshot computed earlier for the same table. When
// set, only entries with a version greater than Prior.Version are folded,
// and the result must be identical to folding the full history from zero.
type ReplayOptions struct {
	TargetVersion *int64
	Prior         *share.Snapshot
}

// ComputeSnapshot folds log entries into the table state at the target
// version. It is a pure function of its inputs: no shared state, no
// side effects, safe for unsynchronized concurrent use.
//
// Entries must be in ascending version order, which is how the Store
// returns them.
func ComputeSnapshot(table string, entries []share.Entry, opts ReplayOptions) (*share.Snapshot, error) {
	if opts.TargetVersion != nil && *opts.TargetVersion < 0 {
		return nil, errors.New(ErrInvalidVersion, "table version cannot be negative", nil).
			AddContext("table", table).
			AddContext("version", fmt.Sprintf("%d", *opts.TargetVersion))
	}

	var snap *share.Snapshot
	if opts.Prior != nil {
		if opts.TargetVersion != nil && *opts.TargetVersion < opts.Prior.Version {
			// A checkpoint cannot be rewound; the caller must replay from
			// older history, which is no longer retained here.
			return nil, versionUnavailable(table, *opts.TargetVersion, opts.Prior.Version)
		}
		snap = opts.Prior.Clone()
	} else {
		if len(entries) == 0 {
			return nil, errors.New(ErrTableNotInitialized, "table has no log entries", nil).AddContext("table", table)
		}
		if oldest := entries[0].Version; oldest > 0 {
			if opts.TargetVersion != nil && *opts.TargetVersion < oldest {
				return nil, versionUnavailable(table, *opts.TargetVersion, oldest)
			}
			// The retained history starts past version zero and no
			// checkpoint covers the gap.
			return nil, versionUnavailable(table, 0, oldest)
		}
		snap = &share.Snapshot{
			Table:       table,
			Version:     -1,
			ActiveFiles: make(map[string]*share.AddFile),
		}
	}

	for _, entry := range entries {
		if entry.Version <= snap.Version {
			// Already folded into the checkpoint.
			continue
		}
		if opts.TargetVersion != nil && entry.Version > *opts.TargetVersion {
			break
		}
		applyAction(snap, entry.Action)
		snap.Version = entry.Version
	}

	if opts.TargetVersion != nil && snap.Version < *opts.TargetVersion {
		return nil, errors.New(ErrVersionUnavailable, "requested table version does not exist yet", nil).
			AddContext("table", table).
			AddContext("requested", fmt.Sprintf("%d", *opts.TargetVersion)).
			AddContext("latest", fmt.Sprintf("%d", snap.Version))
	}

	if snap.Metadata == nil {
		return nil, errors.New(ErrTableNotInitialized, "table has no committed metadata", nil).AddContext("table", table)
	}

	if snap.Protocol != nil && snap.Protocol.MinReaderVersion > MaxSupportedReaderVersion {
		return nil, errors.New(ErrProtocolUnsupported, "table requires a newer reader protocol", nil).
			AddContext("table", table).
			AddContext("min_reader_version", fmt.Sprintf("%d", snap.Protocol.MinReaderVersion)).
			AddContext("supported", fmt.Sprintf("%d", MaxSupportedReaderVersion))
	}

	return snap, nil
}

// applyAction folds one action into the snapshot. Exhaustive over the
// action union; commitInfo is retained for informational reads only.
func applyAction(snap *share.Snapshot, action share.Action) {
	switch {
	case action.Add != nil:
		snap.ActiveFiles[action.Add.Path] = action.Add
	case action.Remove != nil:
		// Removing a path never seen in this replay window is a no-op:
		// tail replay may start past the original add.
		delete(snap.ActiveFiles, action.Remove.Path)
	case action.Metadata != nil:
		snap.Metadata = action.Metadata
	case action.Protocol != nil:
		snap.Protocol = action.Protocol
	case action.CommitInfo != nil:
		snap.CommitInfo = action.CommitInfo
	}
}

func versionUnavailable(table string, requested, oldest int64) *errors.Error {
	return errors.New(ErrVersionUnavailable, "requested table version predates retained history", nil).
		AddContext("table", table).
		AddContext("requested", fmt.Sprintf("%d", requested)).
		AddContext("oldest_retained", fmt.Sprintf("%d", oldest))
}
