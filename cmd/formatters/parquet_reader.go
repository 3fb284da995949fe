package formatters

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetReader reads Parquet format. Parquet needs random access, so the
// whole file is held in memory.
type ParquetReader struct {
	file    *parquet.File
	closer  io.ReadCloser
	columns []string
	rows    []map[string]interface{}
	loaded  bool
}

func NewParquetReader(r io.Reader) (*ParquetReader, error) {
	return openParquet(r, nil)
}

// NewParquetReaderWithCloser creates a Parquet reader that closes r on Close
func NewParquetReaderWithCloser(r io.ReadCloser) (*ParquetReader, error) {
	reader, err := openParquet(r, r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return reader, nil
}

func openParquet(r io.Reader, closer io.ReadCloser) (*ParquetReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	// nested paths are flattened to their last component
	paths := file.Schema().Columns()
	columns := make([]string, len(paths))
	for i, path := range paths {
		if len(path) > 0 {
			columns[i] = path[len(path)-1]
		}
	}

	return &ParquetReader{file: file, closer: closer, columns: columns}, nil
}

// Columns returns the leaf column names of the schema
func (r *ParquetReader) Columns() []string {
	return r.columns
}

// ReadChunk returns up to chunkSize of the remaining rows
func (r *ParquetReader) ReadChunk(chunkSize int) ([]map[string]interface{}, error) {
	if !r.loaded {
		if err := r.load(); err != nil {
			return nil, err
		}
	}

	n := len(r.rows)
	if chunkSize > 0 && chunkSize < n {
		n = chunkSize
	}
	chunk := r.rows[:n]
	r.rows = r.rows[n:]
	return chunk, nil
}

// ReadAll reads all remaining rows
func (r *ParquetReader) ReadAll() ([]map[string]interface{}, error) {
	return r.ReadChunk(0)
}

// load decodes every row group
func (r *ParquetReader) load() error {
	r.loaded = true

	const batchSize = 1000
	batch := make([]parquet.Row, batchSize)

	for _, rowGroup := range r.file.RowGroups() {
		rowReader := rowGroup.Rows()
		for {
			n, err := rowReader.ReadRows(batch)
			for _, parquetRow := range batch[:n] {
				r.rows = append(r.rows, r.decodeRow(parquetRow))
			}
			if err == io.EOF || n == 0 {
				break
			}
			if err != nil {
				rowReader.Close()
				return fmt.Errorf("failed to read parquet rows: %w", err)
			}
		}
		rowReader.Close()
	}

	return nil
}

func (r *ParquetReader) decodeRow(parquetRow parquet.Row) map[string]interface{} {
	row := make(map[string]interface{}, len(r.columns))
	for _, col := range r.columns {
		row[col] = nil
	}

	for _, val := range parquetRow {
		idx := val.Column()
		if idx < 0 || idx >= len(r.columns) || val.IsNull() {
			continue
		}
		name := r.columns[idx]

		switch val.Kind() {
		case parquet.Boolean:
			row[name] = val.Boolean()
		case parquet.Int32:
			row[name] = val.Int32()
		case parquet.Int64:
			row[name] = val.Int64()
		case parquet.Float:
			row[name] = val.Float()
		case parquet.Double:
			row[name] = val.Double()
		default:
			s := string(val.ByteArray())
			if t, ok := parseTimestamp(s); ok {
				row[name] = t
			} else {
				row[name] = s
			}
		}
	}

	return row
}

// Close closes the underlying reader
func (r *ParquetReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
