package deltalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/server/share"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Package-specific error codes for log storage
var (
	ErrTableNotFound = errors.MustNewCode("deltalog.table_not_found")
	ErrLogReadFailed = errors.MustNewCode("deltalog.log_read_failed")
	ErrLogCorrupted  = errors.MustNewCode("deltalog.log_corrupted")
	ErrInvalidPath   = errors.MustNewCode("deltalog.invalid_file_path")
)

// LogDirName is the per-table directory holding commit files
const LogDirName = "_log"

// actionKeys are the mutually exclusive keys a log line may carry
var actionKeys = []string{"add", "remove", "metaData", "protocol", "commitInfo"}

// Store reads append-only table logs from the filesystem. Each table is a
// directory under the storage root; its commits live in _log as one NDJSON
// file per version, named with the zero-padded version number
// (00000000000000000000.json, ...). Commit files are immutable once
// written, so the store never locks.
type Store struct {
	basePath string
	logger   zerolog.Logger
}

// NewStore creates a log store rooted at basePath
func NewStore(basePath string, logger zerolog.Logger) *Store {
	return &Store{
		basePath: basePath,
		logger:   logger.With().Str("component", "deltalog-store").Logger(),
	}
}

// BasePath returns the storage root
func (s *Store) BasePath() string {
	return s.basePath
}

func (s *Store) logDir(table string) string {
	return filepath.Join(s.basePath, table, LogDirName)
}

// ListTables returns the names of all tables that have a log directory,
// sorted ascending.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, errors.New(ErrLogReadFailed, "failed to read storage root", err).AddContext("path", s.basePath)
	}

	var tables []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if info, err := os.Stat(filepath.Join(s.basePath, entry.Name(), LogDirName)); err != nil || !info.IsDir() {
			continue
		}
		tables = append(tables, entry.Name())
	}

	sort.Strings(tables)
	return tables, nil
}

// TableExists reports whether the table has a log directory
func (s *Store) TableExists(table string) bool {
	info, err := os.Stat(s.logDir(table))
	return err == nil && info.IsDir()
}

// commitVersions returns the sorted versions that have a commit file
func (s *Store) commitVersions(table string) ([]int64, error) {
	dir := s.logDir(table)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(ErrTableNotFound, "table does not exist", nil).AddContext("table", table)
		}
		return nil, errors.New(ErrLogReadFailed, "failed to read log directory", err).AddContext("path", dir)
	}

	var versions []int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// LatestVersion returns the highest committed version of the table
func (s *Store) LatestVersion(ctx context.Context, table string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	versions, err := s.commitVersions(table)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, errors.New(ErrTableNotInitialized, "table log is empty", nil).AddContext("table", table)
	}
	return versions[len(versions)-1], nil
}

// OldestVersion returns the lowest retained version of the table. Older
// commits may have been vacuumed away; serving them requires a checkpoint.
func (s *Store) OldestVersion(ctx context.Context, table string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	versions, err := s.commitVersions(table)
	if err != nil {
		return 0, err
	}
	if len(versions) == 0 {
		return 0, errors.New(ErrTableNotInitialized, "table log is empty", nil).AddContext("table", table)
	}
	return versions[0], nil
}

// ReadEntries returns all retained entries with lo <= version <= hi in
// ascending version order. A negative hi means "through latest".
func (s *Store) ReadEntries(ctx context.Context, table string, lo, hi int64) ([]share.Entry, error) {
	versions, err := s.commitVersions(table)
	if err != nil {
		return nil, err
	}

	var out []share.Entry
	for _, version := range versions {
		if version < lo || (hi >= 0 && version > hi) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entries, err := s.readCommit(table, version)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}

	return out, nil
}

// readCommit parses one commit file into versioned entries
func (s *Store) readCommit(table string, version int64) ([]share.Entry, error) {
	path := filepath.Join(s.logDir(table), CommitFileName(version))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ErrLogReadFailed, "failed to open commit file", err).AddContext("path", path)
	}
	defer f.Close()

	var entries []share.Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		action, err := parseAction([]byte(line))
		if err != nil {
			return nil, errors.AsError(err).
				AddContext("path", path).
				AddContext("line", fmt.Sprintf("%d", lineNo))
		}
		entries = append(entries, share.Entry{Version: version, Action: *action})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(ErrLogReadFailed, "failed to scan commit file", err).AddContext("path", path)
	}

	return entries, nil
}

// parseAction decodes one NDJSON log line. The line must carry exactly one
// of the action keys; gjson classifies the line before the struct decode so
// a malformed commit is rejected rather than silently skipped.
func parseAction(line []byte) (*share.Action, error) {
	if !gjson.ValidBytes(line) {
		return nil, errors.New(ErrLogCorrupted, "log line is not valid JSON", nil)
	}

	found := ""
	for _, key := range actionKeys {
		if !gjson.GetBytes(line, key).Exists() {
			continue
		}
		if found != "" {
			return nil, errors.New(ErrLogCorrupted, "log line carries multiple action keys", nil).
				AddContext("keys", found+","+key)
		}
		found = key
	}
	if found == "" {
		return nil, errors.New(ErrLogCorrupted, "log line carries no recognized action key", nil)
	}

	var action share.Action
	if err := json.Unmarshal(line, &action); err != nil {
		return nil, errors.New(ErrLogCorrupted, "failed to decode log action", err).AddContext("key", found)
	}

	return &action, nil
}

// DataFilePath resolves a relative file path from an add record against the
// table's directory, rejecting anything that would escape it.
func (s *Store) DataFilePath(table, relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", errors.New(ErrInvalidPath, "file path must be relative", nil).AddContext("path", relPath)
	}

	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", errors.New(ErrInvalidPath, "file path escapes the table directory", nil).AddContext("path", relPath)
	}

	return filepath.Join(s.basePath, table, cleaned), nil
}

// CommitFileName returns the zero-padded commit file name for a version
func CommitFileName(version int64) string {
	return fmt.Sprintf("%020d.json", version)
}
