package formatters

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// maxLineSize bounds a single JSONL record
const maxLineSize = 16 * 1024 * 1024

// JSONLReader reads JSONL format (one JSON object per line). Strings that
// look like timestamps are decoded as time.Time.
type JSONLReader struct {
	scanner *bufio.Scanner
	reader  io.ReadCloser
	columns []string
	seen    map[string]bool
}

func NewJSONLReader(r io.Reader) *JSONLReader {
	return newJSONLReader(r, nil)
}

// NewJSONLReaderWithCloser creates a JSONL reader that closes r on Close
func NewJSONLReaderWithCloser(r io.ReadCloser) *JSONLReader {
	return newJSONLReader(r, r)
}

func newJSONLReader(r io.Reader, closer io.ReadCloser) *JSONLReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &JSONLReader{scanner: scanner, reader: closer, seen: map[string]bool{}}
}

// Columns returns keys in the order they were first seen; keys new to a
// line are added in sorted order.
func (r *JSONLReader) Columns() []string {
	return r.columns
}

// ReadChunk reads up to chunkSize rows
func (r *JSONLReader) ReadChunk(chunkSize int) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}

	for (chunkSize <= 0 || len(rows) < chunkSize) && r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row map[string]interface{}
		decoder := json.NewDecoder(bytes.NewReader(line))
		decoder.UseNumber()
		if err := decoder.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to parse JSON line: %w", err)
		}

		var added []string
		for key, val := range row {
			switch v := val.(type) {
			case json.Number:
				row[key] = numberValue(v)
			case string:
				if t, ok := parseTimestamp(v); ok {
					row[key] = t
				}
			}
			if !r.seen[key] {
				r.seen[key] = true
				added = append(added, key)
			}
		}
		sort.Strings(added)
		r.columns = append(r.columns, added...)

		rows = append(rows, row)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return rows, nil
}

// numberValue keeps integers exact and decodes everything else as float64
func numberValue(n json.Number) interface{} {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// ReadAll reads all remaining rows
func (r *JSONLReader) ReadAll() ([]map[string]interface{}, error) {
	return r.ReadChunk(0)
}

// Close closes the underlying reader if it's closable
func (r *JSONLReader) Close() error {
	if r.reader != nil {
		return r.reader.Close()
	}
	return nil
}
