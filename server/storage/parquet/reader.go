package parquet

import (
	"context"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/gear6io/lakeshare/pkg/errors"
	"github.com/gear6io/lakeshare/utils"
	"github.com/rs/zerolog"
)

// Package-specific error codes for columnar ingestion
var (
	ErrIngestOpenFailed   = errors.MustNewCode("ingest.open_failed")
	ErrIngestReadFailed   = errors.MustNewCode("ingest.read_failed")
	ErrIngestSchemaFailed = errors.MustNewCode("ingest.schema_failed")
	ErrIngestTempFile     = errors.MustNewCode("ingest.temp_file_failed")
)

// readBatchSize bounds memory per record batch during streaming
const readBatchSize = 1024

// ReadOptions selects the page of rows to materialize. Offset rows are
// skipped, then up to Limit rows are collected; Limit <= 0 means no limit.
type ReadOptions struct {
	Limit  int64
	Offset int64
}

// ReadResult is one page of normalized rows plus the file's full row
// count. TotalRowCount is "rows in file", not "rows in page": the scan
// keeps counting after the page fills, because callers compute "has more"
// from the total.
type ReadResult struct {
	Rows          []Row  `json:"rows"`
	Schema        Schema `json:"schema"`
	TotalRowCount int64  `json:"totalRowCount"`
}

// Reader normalizes Parquet files into protocol rows. Reads are blocking
// I/O; each request runs one on its own goroutine.
type Reader struct {
	alloc  memory.Allocator
	logger zerolog.Logger
}

// NewReader creates a parquet reader
func NewReader(logger zerolog.Logger) *Reader {
	return &Reader{
		alloc:  memory.NewGoAllocator(),
		logger: logger.With().Str("component", "parquet-reader").Logger(),
	}
}

// ReadFile streams the file in order, normalizing rows into the requested
// page. The file handle is released on every exit path, including read
// errors mid-stream.
func (r *Reader) ReadFile(ctx context.Context, path string, opts ReadOptions) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ErrIngestOpenFailed, "failed to open data file", err).AddContext("path", path)
	}

	pf, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, errors.New(ErrIngestOpenFailed, "failed to read parquet container", err).AddContext("path", path)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: readBatchSize}, r.alloc)
	if err != nil {
		return nil, errors.New(ErrIngestSchemaFailed, "failed to create arrow reader", err).AddContext("path", path)
	}

	arrowSchema, err := fr.Schema()
	if err != nil {
		return nil, errors.New(ErrIngestSchemaFailed, "failed to resolve file schema", err).AddContext("path", path)
	}

	result := &ReadResult{
		Rows:   []Row{},
		Schema: NormalizeSchema(arrowSchema),
	}

	rr, err := fr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, errors.New(ErrIngestReadFailed, "failed to open record stream", err).AddContext("path", path)
	}
	defer rr.Release()

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	for rr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(ErrIngestReadFailed, "read canceled", err).AddContext("path", path)
		}

		rec := rr.Record()
		numRows := rec.NumRows()

		for i := int64(0); i < numRows; i++ {
			rowIndex := result.TotalRowCount
			result.TotalRowCount++

			if rowIndex < offset {
				continue
			}
			if opts.Limit > 0 && int64(len(result.Rows)) >= opts.Limit {
				// Page is full; keep scanning so TotalRowCount stays
				// the whole-file count.
				continue
			}

			row := make(Row, rec.NumCols())
			for c := 0; c < int(rec.NumCols()); c++ {
				row[arrowSchema.Field(c).Name] = normalizeValue(rec.Column(c), int(i))
			}
			result.Rows = append(result.Rows, row)
		}
	}
	if err := rr.Err(); err != nil {
		return nil, errors.New(ErrIngestReadFailed, "failed to stream records", err).AddContext("path", path)
	}

	return result, nil
}

// ReadBuffer ingests an in-memory columnar payload by persisting it to a
// uniquely named temporary file first. The temp name embeds a ULID
// (timestamp plus randomness), so concurrent calls cannot collide. The
// file is deleted on completion regardless of outcome; a failed delete
// is logged and otherwise ignored.
func (r *Reader) ReadBuffer(ctx context.Context, buf []byte, opts ReadOptions) (*ReadResult, error) {
	tmpPath := utils.TempFilePath(os.TempDir(), "lakeshare-ingest", ".parquet")

	if err := os.WriteFile(tmpPath, buf, 0600); err != nil {
		return nil, errors.New(ErrIngestTempFile, "failed to persist ingest buffer", err).AddContext("path", tmpPath)
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			r.logger.Warn().Err(err).Str("path", tmpPath).Msg("Failed to remove ingest temp file")
		}
	}()

	return r.ReadFile(ctx, tmpPath, opts)
}
