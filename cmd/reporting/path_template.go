package reporting

import (
	"strings"
	"time"
)

// PathTemplate generates result file paths from templates.
// Supports: {run}, {YYYY}, {MM}, {DD}, {HH}
type PathTemplate struct {
	template string
}

// NewPathTemplate wraps a results path containing {placeholders}
func NewPathTemplate(template string) *PathTemplate {
	return &PathTemplate{template: template}
}

// Generate replaces placeholders in the template with actual values
func (pt *PathTemplate) Generate(runID string, timestamp time.Time) string {
	result := pt.template

	result = strings.ReplaceAll(result, "{run}", runID)

	result = strings.ReplaceAll(result, "{YYYY}", timestamp.Format("2006"))
	result = strings.ReplaceAll(result, "{MM}", timestamp.Format("01"))
	result = strings.ReplaceAll(result, "{DD}", timestamp.Format("02"))
	result = strings.ReplaceAll(result, "{HH}", timestamp.Format("15"))

	return result
}
