// Package reporting turns validation summaries into result records and
// writes them to files, object storage and the terminal.
package reporting

import (
	"time"

	"github.com/airframesio/data-validator/cmd/validation"
)

// ValidationResult is the reported outcome of one named check
type ValidationResult struct {
	Metric     string                 `json:"metric" yaml:"metric"`
	Status     validation.Status      `json:"status" yaml:"status"`
	Details    validation.Differences `json:"details" yaml:"details"`
	SourceRows int                    `json:"source_rows" yaml:"source_rows"`
	TargetRows int                    `json:"target_rows" yaml:"target_rows"`
	Duration   time.Duration          `json:"-" yaml:"-"`
}

// NewResult labels a summary with the metric it checked
func NewResult(metric string, summary *validation.Summary) ValidationResult {
	details := summary.Details
	if details == nil {
		details = validation.Differences{}
	}
	return ValidationResult{
		Metric:     metric,
		Status:     summary.Status,
		Details:    details,
		SourceRows: summary.SourceRows,
		TargetRows: summary.TargetRows,
	}
}

// Passed reports whether the check passed
func (r ValidationResult) Passed() bool {
	return r.Status == validation.StatusPass
}

// Result columns per output format. CSV omits the row counts and carries
// details as JSON text.
var (
	csvColumns  = []string{"metric", "status", "details"}
	fullColumns = []string{"metric", "status", "details", "source_rows", "target_rows"}
)

func (r ValidationResult) row() map[string]interface{} {
	return map[string]interface{}{
		"metric":      r.Metric,
		"status":      string(r.Status),
		"details":     r.Details,
		"source_rows": int64(r.SourceRows),
		"target_rows": int64(r.TargetRows),
	}
}

// AllPassed reports whether every result passed
func AllPassed(results []ValidationResult) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}
