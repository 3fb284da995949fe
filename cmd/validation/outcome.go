package validation

import (
	"encoding/json"
	"math"
	"strconv"
)

// Status is the verdict of a comparison
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Outcome is the result of one Compare call. Status is derived from
// Differences and is fail exactly when Differences is non-empty.
type Outcome struct {
	Status      Status      `json:"status" yaml:"status"`
	Differences Differences `json:"differences" yaml:"differences"`
}

// NewOutcome builds an outcome whose status follows from diffs
func NewOutcome(diffs Differences) Outcome {
	if diffs == nil {
		diffs = Differences{}
	}
	status := StatusPass
	if len(diffs) > 0 {
		status = StatusFail
	}
	return Outcome{Status: status, Differences: diffs}
}

// Passed reports whether the outcome has no differences
func (o Outcome) Passed() bool {
	return o.Status == StatusPass
}

// Detail is the per-column (or, for composites, per-strategy) record of what
// disagreed. Each strategy has its own detail type.
type Detail interface {
	detail()
}

// Differences maps a column name, or a sub-strategy name inside a composite,
// to its detail record.
type Differences map[string]Detail

func (Differences) detail() {}

// ValueMismatch lists the expected and actual values of mismatching rows,
// keyed by row index. Used by numeric and categorical comparisons.
type ValueMismatch struct {
	Expected map[int]interface{} `json:"expected" yaml:"expected"`
	Actual   map[int]interface{} `json:"actual" yaml:"actual"`
}

func (ValueMismatch) detail() {}

func (m ValueMismatch) MarshalJSON() ([]byte, error) {
	type plain ValueMismatch
	return json.Marshal(plain{Expected: jsonSafeValues(m.Expected), Actual: jsonSafeValues(m.Actual)})
}

// TimestampMismatch lists formatted timestamps and their distance for
// mismatching rows.
type TimestampMismatch struct {
	Expected          map[int]string  `json:"expected" yaml:"expected"`
	Actual            map[int]string  `json:"actual" yaml:"actual"`
	DifferenceSeconds map[int]float64 `json:"difference_seconds" yaml:"difference_seconds"`
}

func (TimestampMismatch) detail() {}

// NullMismatch reports counts and row indices rather than values
type NullMismatch struct {
	MismatchedRows      int   `json:"mismatched_rows" yaml:"mismatched_rows"`
	ExpectedNullCount   int   `json:"expected_null_count" yaml:"expected_null_count"`
	ActualNullCount     int   `json:"actual_null_count" yaml:"actual_null_count"`
	RowsWithDifferences []int `json:"rows_with_differences" yaml:"rows_with_differences"`
}

func (NullMismatch) detail() {}

// StatDelta is one flagged summary statistic
type StatDelta struct {
	Expected      float64 `json:"expected" yaml:"expected"`
	Actual        float64 `json:"actual" yaml:"actual"`
	DifferencePct float64 `json:"difference_pct" yaml:"difference_pct"`
}

func (d StatDelta) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Expected      interface{} `json:"expected"`
		Actual        interface{} `json:"actual"`
		DifferencePct interface{} `json:"difference_pct"`
	}{jsonSafe(d.Expected), jsonSafe(d.Actual), jsonSafe(d.DifferencePct)})
}

// DistributionMismatch maps a statistic name (mean, median, std, min, max)
// to its delta.
type DistributionMismatch map[string]StatDelta

func (DistributionMismatch) detail() {}

// PatternMismatch reports how many rows disagreed on conformance and which
// actual values do not conform.
type PatternMismatch struct {
	MismatchedRows int                 `json:"mismatched_rows" yaml:"mismatched_rows"`
	InvalidValues  map[int]interface{} `json:"invalid_values" yaml:"invalid_values"`
}

func (PatternMismatch) detail() {}

func (m PatternMismatch) MarshalJSON() ([]byte, error) {
	type plain PatternMismatch
	return json.Marshal(plain{MismatchedRows: m.MismatchedRows, InvalidValues: jsonSafeValues(m.InvalidValues)})
}

// jsonSafe renders infinities and NaN as text, since JSON has no literal for
// them. Other values are returned unchanged.
func jsonSafe(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v
}

func jsonSafeValues(values map[int]interface{}) map[int]interface{} {
	if values == nil {
		return nil
	}
	out := make(map[int]interface{}, len(values))
	for i, v := range values {
		out[i] = jsonSafe(v)
	}
	return out
}
