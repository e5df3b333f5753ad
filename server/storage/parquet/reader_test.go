package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	lserrors "github.com/gear6io/lakeshare/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "active", Type: arrow.FixedWidthTypes.Boolean},
	{Name: "payload", Type: arrow.BinaryTypes.Binary},
	{Name: "seen_at", Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
	{Name: "day", Type: arrow.FixedWidthTypes.Date32},
}, nil)

var fixtureEpoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// writeFixture produces a parquet file with numRows deterministic rows
func writeFixture(t *testing.T, path string, numRows int) {
	t.Helper()

	pool := memory.NewGoAllocator()

	idB := array.NewInt64Builder(pool)
	defer idB.Release()
	scoreB := array.NewFloat64Builder(pool)
	defer scoreB.Release()
	activeB := array.NewBooleanBuilder(pool)
	defer activeB.Release()
	payloadB := array.NewBinaryBuilder(pool, arrow.BinaryTypes.Binary)
	defer payloadB.Release()
	seenB := array.NewTimestampBuilder(pool, &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"})
	defer seenB.Release()
	dayB := array.NewDate32Builder(pool)
	defer dayB.Release()

	for i := 0; i < numRows; i++ {
		idB.Append(int64(i))
		if i%5 == 4 {
			scoreB.AppendNull()
		} else {
			scoreB.Append(float64(i) / 2.0)
		}
		activeB.Append(i%2 == 0)
		payloadB.Append([]byte(fmt.Sprintf("payload-%d", i)))
		seenB.Append(arrow.Timestamp(fixtureEpoch.Add(time.Duration(i) * time.Minute).UnixMicro()))
		dayB.Append(arrow.Date32FromTime(fixtureEpoch.AddDate(0, 0, i)))
	}

	arrays := []arrow.Array{
		idB.NewArray(), scoreB.NewArray(), activeB.NewArray(),
		payloadB.NewArray(), seenB.NewArray(), dayB.NewArray(),
	}
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()

	rec := array.NewRecord(fixtureSchema, arrays, int64(numRows))
	defer rec.Release()

	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := pqarrow.NewFileWriter(fixtureSchema, f, nil, pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
}

func newTestReader() *Reader {
	return NewReader(zerolog.Nop())
}

func TestReadFileNormalization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path, 3)

	result, err := newTestReader().ReadFile(context.Background(), path, ReadOptions{})
	require.NoError(t, err)

	require.Len(t, result.Rows, 3)
	assert.Equal(t, int64(3), result.TotalRowCount)

	// Schema reduces to the semantic type set.
	types := map[string]string{}
	for _, col := range result.Schema.Columns {
		types[col.Name] = col.Type
	}
	assert.Equal(t, TypeInteger, types["id"])
	assert.Equal(t, TypeDouble, types["score"])
	assert.Equal(t, TypeBoolean, types["active"])
	assert.Equal(t, TypeString, types["payload"])
	assert.Equal(t, TypeTimestamp, types["seen_at"])
	assert.Equal(t, TypeDate, types["day"])

	row := result.Rows[0]
	assert.Equal(t, int64(0), row["id"])
	assert.Equal(t, float64(0), row["score"])
	assert.Equal(t, true, row["active"])
	assert.Equal(t, "payload-0", row["payload"], "binary decodes as UTF-8 text")
	assert.Equal(t, "2024-01-15T10:30:00Z", row["seen_at"], "timestamp serializes canonically")
	assert.Equal(t, "2024-01-15", row["day"])

	// Nulls survive as nil, not zero values.
	assert.Nil(t, result.Rows[2]["score"], "unexpected value in %v", result.Rows[2])
}

func TestReadFileNullableSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path, 1)

	result, err := newTestReader().ReadFile(context.Background(), path, ReadOptions{})
	require.NoError(t, err)

	byName := map[string]Column{}
	for _, col := range result.Schema.Columns {
		byName[col.Name] = col
	}
	assert.True(t, byName["score"].Nullable)
	assert.False(t, byName["id"].Nullable)
}

func TestReadFileLimitOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path, 20)

	reader := newTestReader()
	ctx := context.Background()

	// Limit restricts the page but not the count.
	result, err := reader.ReadFile(ctx, path, ReadOptions{Limit: 5})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	assert.Equal(t, int64(20), result.TotalRowCount)
	assert.Equal(t, int64(0), result.Rows[0]["id"])

	// Offset skips rows in file order.
	result, err = reader.ReadFile(ctx, path, ReadOptions{Limit: 5, Offset: 8})
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	assert.Equal(t, int64(8), result.Rows[0]["id"])
	assert.Equal(t, int64(12), result.Rows[4]["id"])
	assert.Equal(t, int64(20), result.TotalRowCount)

	// Offset past the end yields an empty page, full count.
	result, err = reader.ReadFile(ctx, path, ReadOptions{Limit: 5, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, int64(20), result.TotalRowCount)
}

func TestReadFileMissing(t *testing.T) {
	_, err := newTestReader().ReadFile(context.Background(), "/nonexistent/x.parquet", ReadOptions{})
	require.Error(t, err)
	assert.Equal(t, ErrIngestOpenFailed.String(), lserrors.GetCode(err))
}

func TestReadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.parquet")
	require.NoError(t, os.WriteFile(path, []byte("this is not parquet"), 0644))

	_, err := newTestReader().ReadFile(context.Background(), path, ReadOptions{})
	require.Error(t, err)
	assert.Equal(t, ErrIngestOpenFailed.String(), lserrors.GetCode(err))
	assert.Equal(t, path, lserrors.GetContext(err)["path"], "triggering path must travel with the error")
}

func TestReadBuffer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.parquet")
	writeFixture(t, path, 4)

	buf, err := os.ReadFile(path)
	require.NoError(t, err)

	result, err := newTestReader().ReadBuffer(context.Background(), buf, ReadOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, int64(4), result.TotalRowCount)
}

func TestReadBufferCleansUpTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.parquet")
	writeFixture(t, path, 2)
	buf, err := os.ReadFile(path)
	require.NoError(t, err)

	before := countTempFiles(t)
	_, err = newTestReader().ReadBuffer(context.Background(), buf, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, countTempFiles(t))

	// Cleanup also runs when the buffer is garbage.
	before = countTempFiles(t)
	_, err = newTestReader().ReadBuffer(context.Background(), []byte("junk"), ReadOptions{})
	require.Error(t, err)
	assert.Equal(t, before, countTempFiles(t))
}

func countTempFiles(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "lakeshare-ingest-*.parquet"))
	require.NoError(t, err)
	return len(matches)
}
