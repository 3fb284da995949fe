package formatters

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes a YAML sequence of mappings with keys in column order
type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) Format(columns []string, rows []map[string]interface{}) ([]byte, error) {
	columns = resolveColumns(columns, rows)

	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rows {
		mapping := &yaml.Node{Kind: yaml.MappingNode}
		for _, col := range columns {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col}
			value := &yaml.Node{}
			if err := value.Encode(row[col]); err != nil {
				return nil, fmt.Errorf("failed to encode column %s: %w", col, err)
			}
			mapping.Content = append(mapping.Content, key, value)
		}
		doc.Content = append(doc.Content, mapping)
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	return buffer.Bytes(), nil
}

func (f *YAMLFormatter) Extension() string {
	return ".yaml"
}

func (f *YAMLFormatter) MIMEType() string {
	return "application/yaml"
}
