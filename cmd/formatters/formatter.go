package formatters

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/airframesio/data-validator/cmd/compressors"
)

// Format type constants
const (
	FormatJSONL   = "jsonl"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatYAML    = "yaml"
	FormatParquet = "parquet"
)

// ErrUnsupportedFormat is returned for a format name or file extension that has no handler
var ErrUnsupportedFormat = errors.New("unsupported format")

// Formatter defines the interface for output format handlers
type Formatter interface {
	// Format renders rows with the given column order. A nil columns slice
	// means the sorted union of the row keys.
	Format(columns []string, rows []map[string]interface{}) ([]byte, error)

	// Extension returns the file extension for this format (e.g., ".jsonl", ".csv", ".parquet")
	Extension() string

	// MIMEType returns the MIME type for this format
	MIMEType() string
}

// Reader reads rows from an exported data file
type Reader interface {
	// Columns returns the column names seen so far, in file order
	Columns() []string

	// ReadChunk reads up to chunkSize rows; an empty result means the input is exhausted
	ReadChunk(chunkSize int) ([]map[string]interface{}, error)

	Close() error
}

// GetFormatter returns the formatter for a format name
func GetFormatter(format string) (Formatter, error) {
	return GetFormatterWithCompression(format, "")
}

// GetFormatterWithCompression returns the appropriate formatter with compression settings.
// For Parquet, this enables internal compression. For other formats, compression is ignored.
func GetFormatterWithCompression(format string, compression string) (Formatter, error) {
	switch strings.ToLower(format) {
	case FormatJSONL:
		return NewJSONLFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatYAML, "yml":
		return NewYAMLFormatter(), nil
	case FormatParquet:
		if compression == "" {
			return NewParquetFormatter(), nil
		}
		return NewParquetFormatterWithCompression(compression), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// UsesInternalCompression returns true if the format handles compression internally
func UsesInternalCompression(format string) bool {
	return format == FormatParquet
}

// NewReader returns a reader for the format; closing it closes r
func NewReader(format string, r io.ReadCloser) (Reader, error) {
	switch strings.ToLower(format) {
	case FormatJSONL:
		return NewJSONLReaderWithCloser(r), nil
	case FormatCSV:
		return NewCSVReaderWithCloser(r)
	case FormatParquet:
		return NewParquetReaderWithCloser(r)
	default:
		r.Close()
		return nil, fmt.Errorf("%w for reading: %s", ErrUnsupportedFormat, format)
	}
}

// Detect returns the format implied by a filename's extension, ignoring any
// compression extension.
func Detect(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(compressors.TrimExtension(filename)))
	switch ext {
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: unable to detect format from filename %s", ErrUnsupportedFormat, filename)
	}
}

// resolveColumns returns columns, or the sorted union of the row keys when columns is nil
func resolveColumns(columns []string, rows []map[string]interface{}) []string {
	if columns != nil {
		return columns
	}
	seen := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// textValue renders a cell for text formats. Structured values become JSON.
func textValue(val interface{}) (string, error) {
	switch v := val.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	switch reflect.ValueOf(val).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		data, err := json.Marshal(val)
		if err != nil {
			return "", fmt.Errorf("failed to encode value as JSON: %w", err)
		}
		return string(data), nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}
