package formatters

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVReader reads CSV format with a header row
type CSVReader struct {
	reader   *csv.Reader
	closer   io.ReadCloser
	headers  []string
	readOnce bool
}

func NewCSVReader(r io.Reader) (*CSVReader, error) {
	return &CSVReader{reader: newCSVReader(r)}, nil
}

// NewCSVReaderWithCloser creates a CSV reader that closes r on Close
func NewCSVReaderWithCloser(r io.ReadCloser) (*CSVReader, error) {
	return &CSVReader{reader: newCSVReader(r), closer: r}, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// readHeaders reads the header row if not already read. An empty input has no columns.
func (r *CSVReader) readHeaders() error {
	if r.readOnce {
		return nil
	}
	r.readOnce = true

	headers, err := r.reader.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	r.headers = append([]string(nil), headers...)
	return nil
}

// Columns returns the header names
func (r *CSVReader) Columns() []string {
	if err := r.readHeaders(); err != nil {
		return nil
	}
	return r.headers
}

// ReadChunk reads up to chunkSize rows
func (r *CSVReader) ReadChunk(chunkSize int) ([]map[string]interface{}, error) {
	if err := r.readHeaders(); err != nil {
		return nil, err
	}
	if r.headers == nil {
		return nil, nil
	}

	var rows []map[string]interface{}
	for chunkSize <= 0 || len(rows) < chunkSize {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := make(map[string]interface{}, len(r.headers))
		for i, header := range r.headers {
			if i < len(record) {
				row[header] = convertValue(record[i])
			} else {
				row[header] = nil
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadAll reads all remaining rows
func (r *CSVReader) ReadAll() ([]map[string]interface{}, error) {
	return r.ReadChunk(0)
}

// convertValue attempts to convert a string value to an appropriate type
func convertValue(value string) interface{} {
	if value == "" {
		return nil
	}

	if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		return floatVal
	}

	if boolVal, err := strconv.ParseBool(value); err == nil {
		return boolVal
	}

	if t, ok := parseTimestamp(value); ok {
		return t
	}

	return value
}

// timestampLayouts are tried in order when a text value may be a timestamp
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func parseTimestamp(value string) (time.Time, bool) {
	// cheap rejection before trying every layout
	if len(value) < 10 || value[4] != '-' || value[7] != '-' {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Close closes the underlying reader if it's closable
func (r *CSVReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
