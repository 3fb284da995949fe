package formatters

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONLFormatter handles JSONL (JSON Lines) format output
type JSONLFormatter struct{}

func NewJSONLFormatter() *JSONLFormatter {
	return &JSONLFormatter{}
}

// Format writes one JSON object per line, keys in column order
func (f *JSONLFormatter) Format(columns []string, rows []map[string]interface{}) ([]byte, error) {
	columns = resolveColumns(columns, rows)

	var buffer bytes.Buffer
	for _, row := range rows {
		if err := writeObject(&buffer, columns, row, "", ""); err != nil {
			return nil, err
		}
		buffer.WriteByte('\n')
	}

	return buffer.Bytes(), nil
}

func (f *JSONLFormatter) Extension() string {
	return ".jsonl"
}

func (f *JSONLFormatter) MIMEType() string {
	return "application/x-ndjson"
}

// writeObject encodes row as a JSON object whose keys follow columns.
// With a non-empty indent the object is pretty-printed at the given prefix.
func writeObject(buffer *bytes.Buffer, columns []string, row map[string]interface{}, prefix, indent string) error {
	buffer.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buffer.WriteByte(',')
		}
		if indent != "" {
			buffer.WriteString("\n" + prefix + indent)
		}

		key, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("failed to encode key %s: %w", col, err)
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		if indent != "" {
			buffer.WriteByte(' ')
		}

		var value []byte
		if indent != "" {
			value, err = json.MarshalIndent(row[col], prefix+indent, indent)
		} else {
			value, err = json.Marshal(row[col])
		}
		if err != nil {
			return fmt.Errorf("failed to encode column %s: %w", col, err)
		}
		buffer.Write(value)
	}
	if indent != "" && len(columns) > 0 {
		buffer.WriteString("\n" + prefix)
	}
	buffer.WriteByte('}')
	return nil
}
