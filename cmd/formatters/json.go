package formatters

import "bytes"

// JSONFormatter writes an indented JSON array of objects
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(columns []string, rows []map[string]interface{}) ([]byte, error) {
	columns = resolveColumns(columns, rows)

	var buffer bytes.Buffer
	buffer.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			buffer.WriteByte(',')
		}
		buffer.WriteString("\n  ")
		if err := writeObject(&buffer, columns, row, "  ", "  "); err != nil {
			return nil, err
		}
	}
	if len(rows) > 0 {
		buffer.WriteByte('\n')
	}
	buffer.WriteString("]\n")

	return buffer.Bytes(), nil
}

func (f *JSONFormatter) Extension() string {
	return ".json"
}

func (f *JSONFormatter) MIMEType() string {
	return "application/json"
}
