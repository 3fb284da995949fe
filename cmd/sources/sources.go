// Package sources provides the data sources a validation run reads its
// result sets from: PostgreSQL databases and exported archive files.
package sources

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Static errors for data source failures
var (
	ErrSource            = errors.New("data source error")
	ErrMissingParameter  = errors.New("query parameter not provided")
	ErrNotConnected      = errors.New("data source not connected")
	ErrWrongDatabase     = errors.New("connected to an unexpected database")
	ErrNoObjects         = errors.New("no data files found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// RenderQuery substitutes {name} placeholders with fmt.Sprint of the matching
// parameter. Every placeholder must have a parameter; unused parameters are
// ignored. Braces that do not enclose an identifier are left as they are.
func RenderQuery(template string, params map[string]interface{}) (string, error) {
	var missing []string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return fmt.Sprint(value)
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, strings.Join(dedupe(missing), ", "))
	}
	return rendered, nil
}

// dedupe removes adjacent duplicates from a sorted slice
func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
