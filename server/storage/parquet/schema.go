package parquet

import (
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Semantic column types exposed by the sharing protocol. File-format type
// tags reduce to this set; anything unrecognized degrades to the
// lower-cased raw type name instead of failing the read.
const (
	TypeInteger   = "integer"
	TypeDouble    = "double"
	TypeBoolean   = "boolean"
	TypeString    = "string"
	TypeTimestamp = "timestamp"
	TypeDate      = "date"
	TypeDecimal   = "decimal"
)

// Column describes one column of a normalized schema
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Schema is the protocol-neutral shape of a columnar file
type Schema struct {
	Columns []Column `json:"columns"`
}

// Row maps column names to normalized primitive values
type Row map[string]interface{}

// NormalizeSchema reduces an Arrow schema to the semantic type set
func NormalizeSchema(schema *arrow.Schema) Schema {
	columns := make([]Column, 0, schema.NumFields())
	for _, field := range schema.Fields() {
		columns = append(columns, Column{
			Name:     field.Name,
			Type:     normalizeType(field.Type),
			Nullable: field.Nullable,
		})
	}
	return Schema{Columns: columns}
}

func normalizeType(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return TypeInteger
	case arrow.FLOAT32, arrow.FLOAT64:
		return TypeDouble
	case arrow.BOOL:
		return TypeBoolean
	case arrow.STRING, arrow.LARGE_STRING, arrow.BINARY, arrow.LARGE_BINARY:
		return TypeString
	case arrow.TIMESTAMP:
		return TypeTimestamp
	case arrow.DATE32, arrow.DATE64:
		return TypeDate
	case arrow.DECIMAL128, arrow.DECIMAL256:
		return TypeDecimal
	default:
		return strings.ToLower(dt.Name())
	}
}

// normalizeValue converts one cell to its protocol representation: binary
// decodes as UTF-8 text, temporal values render as canonical strings, wide
// integers pass through as int64 (values beyond 2^53 lose precision once
// JSON-encoded; accepted, not corrected).
func normalizeValue(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Uint64:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.LargeBinary:
		return string(a.Value(i))
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit).UTC().Format(time.RFC3339Nano)
	case *array.Date32:
		return a.Value(i).ToTime().UTC().Format("2006-01-02")
	case *array.Date64:
		return a.Value(i).ToTime().UTC().Format("2006-01-02")
	default:
		// Decimals and anything else exotic: the array's own string
		// rendering already applies scale and formatting.
		return arr.ValueStr(i)
	}
}
