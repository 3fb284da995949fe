package validation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// Pattern checks that both sides agree on which text cells conform to a
// per-column regular expression. A pattern only needs to match at the start
// of the value.
type Pattern struct {
	patterns map[string]*regexp.Regexp
}

// NewPattern compiles patterns keyed by column name
func NewPattern(patterns map[string]string) (*Pattern, error) {
	p := &Pattern{patterns: make(map[string]*regexp.Regexp, len(patterns))}
	for column, expr := range patterns {
		re, err := regexp.Compile(`^(?:` + expr + `)`)
		if err != nil {
			return nil, fmt.Errorf("%w for column %s: %w", ErrInvalidPattern, column, err)
		}
		p.patterns[column] = re
	}
	return p, nil
}

// Columns returns the names of the columns that carry a pattern, sorted
func (p *Pattern) Columns() []string {
	columns := make([]string, 0, len(p.patterns))
	for column := range p.patterns {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func (p *Pattern) Name() string { return "PatternValidation" }

func (p *Pattern) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	pairs, err := columnPairs(expected, actual, dataset.KindText)
	if err != nil {
		return Outcome{}, err
	}

	diffs := Differences{}
	rows := rowSpan(expected, actual)
	for _, pair := range pairs {
		exp, act := pair[0], pair[1]
		re, ok := p.patterns[exp.Name]
		if !ok {
			continue
		}

		mismatched := 0
		for i := 0; i < rows; i++ {
			if matches(re, exp.Value(i)) != matches(re, act.Value(i)) {
				mismatched++
			}
		}
		if mismatched == 0 {
			continue
		}

		invalid := map[int]interface{}{}
		for i, v := range act.Values {
			if !matches(re, v) {
				invalid[i] = v
			}
		}
		diffs[exp.Name] = PatternMismatch{MismatchedRows: mismatched, InvalidValues: invalid}
	}

	return NewOutcome(diffs), nil
}

// matches is false for missing and non-string values
func matches(re *regexp.Regexp, v interface{}) bool {
	s, ok := v.(string)
	return ok && re.MatchString(s)
}
