package reporting

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/airframesio/data-validator/cmd/validation"
)

// TextReport writes the human-readable summary of a run
func TextReport(w io.Writer, results []ValidationResult) error {
	var passed, failed int
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(w, "VALIDATION RESULTS\n")
	fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(w, "\n")

	for _, r := range results {
		icon := "✅"
		if !r.Passed() {
			icon = "❌"
		}
		fmt.Fprintf(w, "%s %s: %s (source %d rows, target %d rows", icon, r.Metric, r.Status, r.SourceRows, r.TargetRows)
		if r.Duration > 0 {
			fmt.Fprintf(w, ", %v", r.Duration.Round(time.Millisecond))
		}
		fmt.Fprintf(w, ")\n")

		if !r.Passed() {
			writeDifferences(w, r.Details, "    ")
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "─────────────────────────────────\n")
	fmt.Fprintf(w, "Checks: %d  Passed: %d  Failed: %d\n", len(results), passed, failed)
	fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	return nil
}

// writeDifferences prints one line per differing column, nesting composites
func writeDifferences(w io.Writer, diffs validation.Differences, indent string) {
	keys := make([]string, 0, len(diffs))
	for k := range diffs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch d := diffs[key].(type) {
		case validation.Differences:
			fmt.Fprintf(w, "%s• %s\n", indent, key)
			writeDifferences(w, d, indent+"  ")
		case validation.ValueMismatch:
			fmt.Fprintf(w, "%s• %s: %d rows differ\n", indent, key, len(d.Expected))
		case validation.TimestampMismatch:
			fmt.Fprintf(w, "%s• %s: %d timestamps differ\n", indent, key, len(d.Expected))
		case validation.NullMismatch:
			fmt.Fprintf(w, "%s• %s: %d rows disagree on nulls (expected %d nulls, actual %d)\n",
				indent, key, d.MismatchedRows, d.ExpectedNullCount, d.ActualNullCount)
		case validation.DistributionMismatch:
			stats := make([]string, 0, len(d))
			for name := range d {
				stats = append(stats, name)
			}
			sort.Strings(stats)
			for _, name := range stats {
				delta := d[name]
				fmt.Fprintf(w, "%s• %s %s: expected %g, actual %g (%.2f%%)\n",
					indent, key, name, delta.Expected, delta.Actual, delta.DifferencePct)
			}
		case validation.PatternMismatch:
			fmt.Fprintf(w, "%s• %s: %d rows disagree on pattern, %d invalid values\n",
				indent, key, d.MismatchedRows, len(d.InvalidValues))
		default:
			fmt.Fprintf(w, "%s• %s\n", indent, key)
		}
	}
}
