package formatters

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVFormatter handles CSV format output
type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format writes a header row followed by one record per row. Structured
// values are written as JSON text.
func (f *CSVFormatter) Format(columns []string, rows []map[string]interface{}) ([]byte, error) {
	columns = resolveColumns(columns, rows)
	if len(columns) == 0 {
		return []byte{}, nil
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			val, err := textValue(row[col])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			record[i] = val
		}

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buffer.Bytes(), nil
}

func (f *CSVFormatter) Extension() string {
	return ".csv"
}

func (f *CSVFormatter) MIMEType() string {
	return "text/csv"
}
