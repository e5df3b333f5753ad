package share

import "sort"

// Format describes the physical encoding of a table's data files
type Format struct {
	Provider string            `json:"provider"`
	Options  map[string]string `json:"options,omitempty"`
}

// AddFile records a data file joining the table
type AddFile struct {
	Path             string            `json:"path"`
	PartitionValues  map[string]string `json:"partitionValues,omitempty"`
	Size             int64             `json:"size"`
	ModificationTime int64             `json:"modificationTime"`
	DataChange       bool              `json:"dataChange"`
	Stats            string            `json:"stats,omitempty"`
}

// RemoveFile records a data file logically leaving the table
type RemoveFile struct {
	Path              string `json:"path"`
	DeletionTimestamp int64  `json:"deletionTimestamp,omitempty"`
	DataChange        *bool  `json:"dataChange,omitempty"`
}

// Metadata records a schema or table-configuration change
type Metadata struct {
	ID               string            `json:"id,omitempty"`
	Name             string            `json:"name,omitempty"`
	SchemaString     string            `json:"schemaString"`
	PartitionColumns []string          `json:"partitionColumns,omitempty"`
	Format           Format            `json:"format"`
	Configuration    map[string]string `json:"configuration,omitempty"`
	CreatedTime      int64             `json:"createdTime,omitempty"`
}

// Protocol records the minimum reader/writer capability required to
// interpret entries committed after it
type Protocol struct {
	MinReaderVersion int `json:"minReaderVersion"`
	MinWriterVersion int `json:"minWriterVersion"`
}

// CommitInfo is informational provenance attached to a commit. It never
// affects snapshot state.
type CommitInfo struct {
	Timestamp           int64             `json:"timestamp,omitempty"`
	Operation           string            `json:"operation,omitempty"`
	OperationParameters map[string]string `json:"operationParameters,omitempty"`
	OperationMetrics    map[string]string `json:"operationMetrics,omitempty"`
}

// Action is the tagged union carried by one log line. Exactly one field is
// non-nil on a well-formed action.
type Action struct {
	Add        *AddFile    `json:"add,omitempty"`
	Remove     *RemoveFile `json:"remove,omitempty"`
	Metadata   *Metadata   `json:"metaData,omitempty"`
	Protocol   *Protocol   `json:"protocol,omitempty"`
	CommitInfo *CommitInfo `json:"commitInfo,omitempty"`
}

// Entry is a single action stamped with the commit version it belongs to
type Entry struct {
	Version int64
	Action  Action
}

// Snapshot is the derived state of a table at a version: the active file
// set plus the metadata and protocol in effect. It is never persisted by
// the serving path; it is recomputed (or checkpoint-folded) per request.
type Snapshot struct {
	Table       string
	Version     int64
	ActiveFiles map[string]*AddFile
	Metadata    *Metadata
	Protocol    *Protocol
	CommitInfo  *CommitInfo
}

// Clone returns a deep-enough copy for use as a replay checkpoint. AddFile
// records are immutable once logged, so sharing the pointers is safe; only
// the map itself must be private to the clone.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	files := make(map[string]*AddFile, len(s.ActiveFiles))
	for path, add := range s.ActiveFiles {
		files[path] = add
	}
	return &Snapshot{
		Table:       s.Table,
		Version:     s.Version,
		ActiveFiles: files,
		Metadata:    s.Metadata,
		Protocol:    s.Protocol,
		CommitInfo:  s.CommitInfo,
	}
}

// SortedPaths returns the active file paths in ascending order. The order
// is stable for a given snapshot, which keeps pagination offsets valid
// across requests.
func (s *Snapshot) SortedPaths() []string {
	paths := make([]string, 0, len(s.ActiveFiles))
	for path := range s.ActiveFiles {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Files returns the active AddFile records ordered by path
func (s *Snapshot) Files() []*AddFile {
	paths := s.SortedPaths()
	files := make([]*AddFile, len(paths))
	for i, path := range paths {
		files[i] = s.ActiveFiles[path]
	}
	return files
}

// NumFiles returns the number of active files
func (s *Snapshot) NumFiles() int {
	return len(s.ActiveFiles)
}
