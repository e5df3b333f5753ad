package sharing

import (
	"context"
	"fmt"

	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/deltalog"
	"github.com/gear6io/lakeshare/server/pagination"
	"github.com/gear6io/lakeshare/server/share"
	"github.com/gear6io/lakeshare/server/storage/parquet"
	"github.com/rs/zerolog"
)

// Package-specific error codes for the sharing service
var (
	ErrFileNotInTable = errors.MustNewCode("sharing.file_not_in_table")
)

// Service answers recipient queries: which tables exist, what a table
// looks like at a version, and the rows of its data files. It composes
// the log store, the snapshot replay, the parquet reader and the
// pagination codec; all request-level policy (auth, wire shape) stays
// in the protocol layer.
type Service struct {
	logs   *deltalog.Store
	reader *parquet.Reader
	codec  *pagination.Codec
	cache  *snapshotCache
	logger zerolog.Logger
}

func NewService(logs *deltalog.Store, reader *parquet.Reader, codec *pagination.Codec, logger zerolog.Logger) *Service {
	return &Service{
		logs:   logs,
		reader: reader,
		codec:  codec,
		cache:  newSnapshotCache(defaultCacheSize),
		logger: logger.With().Str("component", "sharing").Logger(),
	}
}

// TablePage is one window of the table listing.
type TablePage struct {
	Tables        []string `json:"items"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// TableState is the metadata view of a table at a resolved version.
type TableState struct {
	Version  int64           `json:"version"`
	Protocol *share.Protocol `json:"protocol"`
	Metadata *share.Metadata `json:"metadata"`
}

// FilePage is one window of a table's active files at a resolved version.
type FilePage struct {
	Version       int64            `json:"version"`
	Files         []*share.AddFile `json:"files"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

// RowPage is a slice of rows read out of one active data file.
type RowPage struct {
	Version       int64          `json:"version"`
	File          string         `json:"file"`
	Schema        parquet.Schema `json:"schema"`
	Rows          []parquet.Row  `json:"rows"`
	TotalRowCount int64          `json:"totalRowCount"`
}

// ListTables returns one page of table names in lexical order. The
// listing is directory-driven, so a table appears as soon as its log
// directory does, initialized or not.
func (s *Service) ListTables(ctx context.Context, maxResults int, pageToken string) (*TablePage, error) {
	names, err := s.logs.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	page := s.codec.Paginate(int64(len(names)), maxResults, pageToken)
	return &TablePage{
		Tables:        names[page.Start:page.End],
		NextPageToken: page.NextToken,
	}, nil
}

// TableVersion returns the latest committed version of the table.
func (s *Service) TableVersion(ctx context.Context, table string) (int64, error) {
	return s.logs.LatestVersion(ctx, table)
}

// TableMetadata returns the protocol and metadata of the table at the
// requested version, or at the latest version when version is nil.
func (s *Service) TableMetadata(ctx context.Context, table string, version *int64) (*TableState, error) {
	snap, err := s.snapshotAt(ctx, table, version)
	if err != nil {
		return nil, err
	}
	return &TableState{
		Version:  snap.Version,
		Protocol: snap.Protocol,
		Metadata: snap.Metadata,
	}, nil
}

// ListFiles returns one page of the table's active files at the
// requested version, ordered by path so that paging is stable.
func (s *Service) ListFiles(ctx context.Context, table string, version *int64, maxResults int, pageToken string) (*FilePage, error) {
	snap, err := s.snapshotAt(ctx, table, version)
	if err != nil {
		return nil, err
	}

	paths := snap.SortedPaths()
	page := s.codec.Paginate(int64(len(paths)), maxResults, pageToken)

	files := make([]*share.AddFile, 0, page.End-page.Start)
	for _, path := range paths[page.Start:page.End] {
		files = append(files, snap.ActiveFiles[path])
	}

	return &FilePage{
		Version:       snap.Version,
		Files:         files,
		NextPageToken: page.NextToken,
	}, nil
}

// QueryRows reads rows from one data file of the table at the requested
// version. The file must be active in that snapshot; anything else is
// rejected before touching the filesystem, so a recipient cannot probe
// paths outside the versions they were shown.
func (s *Service) QueryRows(ctx context.Context, table string, version *int64, filePath string, limit, offset int64) (*RowPage, error) {
	snap, err := s.snapshotAt(ctx, table, version)
	if err != nil {
		return nil, err
	}

	if _, ok := snap.ActiveFiles[filePath]; !ok {
		return nil, errors.New(ErrFileNotInTable, "file is not active in this table version", nil).
			AddContext("table", table).
			AddContext("file", filePath).
			AddContext("version", fmt.Sprintf("%d", snap.Version))
	}

	absPath, err := s.logs.DataFilePath(table, filePath)
	if err != nil {
		return nil, err
	}

	result, err := s.reader.ReadFile(ctx, absPath, parquet.ReadOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}

	return &RowPage{
		Version:       snap.Version,
		File:          filePath,
		Schema:        result.Schema,
		Rows:          result.Rows,
		TotalRowCount: result.TotalRowCount,
	}, nil
}

// snapshotAt materializes the table snapshot for the requested version,
// reusing a cached snapshot as the replay checkpoint when one covers a
// prefix of the history.
func (s *Service) snapshotAt(ctx context.Context, table string, version *int64) (*share.Snapshot, error) {
	resolved := int64(0)
	if version == nil {
		latest, err := s.logs.LatestVersion(ctx, table)
		if err != nil {
			return nil, err
		}
		resolved = latest
	} else {
		if *version < 0 {
			return nil, errors.New(deltalog.ErrInvalidVersion, "table version cannot be negative", nil).
				AddContext("table", table).
				AddContext("version", fmt.Sprintf("%d", *version))
		}
		resolved = *version
	}

	if snap, ok := s.cache.get(table, resolved); ok {
		return snap, nil
	}

	lo := int64(0)
	prior, ok := s.cache.bestAtOrBelow(table, resolved)
	if ok {
		lo = prior.Version + 1
	}

	entries, err := s.logs.ReadEntries(ctx, table, lo, resolved)
	if err != nil {
		return nil, err
	}

	snap, err := deltalog.ComputeSnapshot(table, entries, deltalog.ReplayOptions{
		TargetVersion: &resolved,
		Prior:         prior,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("table", table).
		Int64("version", resolved).
		Int("active_files", snap.NumFiles()).
		Bool("from_checkpoint", prior != nil).
		Msg("Materialized table snapshot")

	s.cache.put(table, resolved, snap)
	return snap, nil
}
