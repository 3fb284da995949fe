package formatters

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ParquetFormatter handles Parquet format output
type ParquetFormatter struct {
	compression string
}

// NewParquetFormatter creates a Parquet formatter using Snappy
func NewParquetFormatter() *ParquetFormatter {
	return &ParquetFormatter{compression: "snappy"}
}

// NewParquetFormatterWithCompression creates a Parquet formatter with specified compression
func NewParquetFormatterWithCompression(compression string) *ParquetFormatter {
	return &ParquetFormatter{compression: compression}
}

// Format writes rows as a Parquet file. Values other than booleans, numbers
// and strings are stored as text, structured values as JSON.
func (f *ParquetFormatter) Format(columns []string, rows []map[string]interface{}) ([]byte, error) {
	columns = resolveColumns(columns, rows)
	if len(rows) == 0 || len(columns) == 0 {
		return []byte{}, nil
	}

	converted := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		out := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			val, err := parquetValue(row[col])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			out[col] = val
		}
		converted[i] = out
	}

	schema := buildSchemaFromRows(columns, converted)

	var codec parquet.WriterOption
	switch f.compression {
	case "zstd":
		codec = parquet.Compression(&parquet.Zstd)
	case "gzip":
		codec = parquet.Compression(&parquet.Gzip)
	case "lz4":
		codec = parquet.Compression(&parquet.Lz4Raw)
	case "none":
		codec = parquet.Compression(&parquet.Uncompressed)
	default:
		codec = parquet.Compression(&parquet.Snappy)
	}

	var buffer bytes.Buffer
	writer := parquet.NewGenericWriter[map[string]any](&buffer, schema, codec)

	if _, err := writer.Write(converted); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write parquet rows: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet writer: %w", err)
	}

	return buffer.Bytes(), nil
}

// parquetValue keeps scalar types and renders everything else as text
func parquetValue(val interface{}) (interface{}, error) {
	switch val.(type) {
	case nil, bool, int, int8, int16, int32, int64, float32, float64, string:
		return val, nil
	default:
		return textValue(val)
	}
}

// buildSchemaFromRows creates a Parquet schema from the first non-nil value of each column
func buildSchemaFromRows(columns []string, rows []map[string]interface{}) *parquet.Schema {
	fields := make(parquet.Group)
	for _, col := range columns {
		var value interface{} = ""
		for _, row := range rows {
			if v := row[col]; v != nil {
				value = v
				break
			}
		}

		var field parquet.Node
		switch value.(type) {
		case bool:
			field = parquet.Optional(parquet.Leaf(parquet.BooleanType))
		case int, int8, int16, int32:
			field = parquet.Optional(parquet.Leaf(parquet.Int32Type))
		case int64:
			field = parquet.Optional(parquet.Leaf(parquet.Int64Type))
		case float32:
			field = parquet.Optional(parquet.Leaf(parquet.FloatType))
		case float64:
			field = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		default:
			field = parquet.Optional(parquet.String())
		}

		fields[col] = field
	}

	return parquet.NewSchema("data_validator", fields)
}

func (f *ParquetFormatter) Extension() string {
	return ".parquet"
}

func (f *ParquetFormatter) MIMEType() string {
	return "application/vnd.apache.parquet"
}
