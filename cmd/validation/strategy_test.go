package validation

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// newDataset builds a dataset from name/values pairs in order
func newDataset(t *testing.T, columns ...dataset.Column) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New(columns...)
	if err != nil {
		t.Fatalf("failed to build dataset: %v", err)
	}
	return d
}

func col(name string, values ...interface{}) dataset.Column {
	return dataset.Column{Name: name, Values: values}
}

func mustNumeric(t *testing.T, tolerance float64) *Numeric {
	t.Helper()
	n, err := NewNumeric(tolerance)
	if err != nil {
		t.Fatalf("NewNumeric(%g): %v", tolerance, err)
	}
	return n
}

func mustDistribution(t *testing.T, threshold float64) *Distribution {
	t.Helper()
	d, err := NewDistribution(threshold)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestNumericScenarios(t *testing.T) {
	expected := newDataset(t, col("amt", 10.0, 20.0))
	actual := newDataset(t, col("amt", 10.0, 20.0005))

	t.Run("within tolerance passes", func(t *testing.T) {
		outcome, err := mustNumeric(t, 1e-3).Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Status != StatusPass {
			t.Errorf("expected pass, got %s with %v", outcome.Status, outcome.Differences)
		}
		if len(outcome.Differences) != 0 {
			t.Errorf("expected no differences, got %v", outcome.Differences)
		}
	})

	t.Run("outside tolerance fails on row 1", func(t *testing.T) {
		outcome, err := mustNumeric(t, 1e-6).Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Status != StatusFail {
			t.Fatalf("expected fail, got %s", outcome.Status)
		}
		detail, ok := outcome.Differences["amt"].(ValueMismatch)
		if !ok {
			t.Fatalf("expected ValueMismatch for amt, got %T", outcome.Differences["amt"])
		}
		if len(detail.Expected) != 1 || detail.Expected[1] != 20.0 {
			t.Errorf("expected row 1 expected=20.0, got %v", detail.Expected)
		}
		if len(detail.Actual) != 1 || detail.Actual[1] != 20.0005 {
			t.Errorf("expected row 1 actual=20.0005, got %v", detail.Actual)
		}
	})
}

func TestNumericToleranceBoundary(t *testing.T) {
	tests := []struct {
		name     string
		exp, act float64
		tol      float64
		mismatch bool
	}{
		{"equal", 1, 1, 0, false},
		{"exactly at tolerance", 1, 1.5, 0.5, false},
		{"just above tolerance", 1, 1.5, 0.4999, true},
		{"negative values", -3, -3.25, 0.1, true},
		{"large tolerance", 100, 200, 1000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := mustNumeric(t, tt.tol).Compare(
				newDataset(t, col("v", tt.exp)),
				newDataset(t, col("v", tt.act)),
			)
			if err != nil {
				t.Fatal(err)
			}
			_, found := outcome.Differences["v"]
			if found != tt.mismatch {
				t.Errorf("mismatch = %v, want %v", found, tt.mismatch)
			}
		})
	}
}

func TestNumericMissingAndSkippedColumns(t *testing.T) {
	expected := newDataset(t,
		col("amt", 1.0, nil, 3.0),
		col("name", "a", "b", "c"),
	)
	actual := newDataset(t,
		col("amt", nil, 2.0, 3.0),
		col("name", "x", "y", "z"),
	)

	outcome, err := mustNumeric(t, 0).Compare(expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Passed() {
		t.Errorf("missing cells and text columns must not produce numeric mismatches, got %v", outcome.Differences)
	}
}

func TestNumericErrors(t *testing.T) {
	t.Run("negative tolerance", func(t *testing.T) {
		if _, err := NewNumeric(-1); !errors.Is(err, ErrNegativeTolerance) {
			t.Errorf("expected ErrNegativeTolerance, got %v", err)
		}
	})

	t.Run("column missing from actual", func(t *testing.T) {
		_, err := mustNumeric(t, 0).Compare(
			newDataset(t, col("amt", 1.0)),
			newDataset(t, col("other", 1.0)),
		)
		if !errors.Is(err, ErrColumnMissing) {
			t.Errorf("expected ErrColumnMissing, got %v", err)
		}
	})

	t.Run("non-numeric actual value", func(t *testing.T) {
		_, err := mustNumeric(t, 0).Compare(
			newDataset(t, col("amt", 1.0)),
			newDataset(t, col("amt", "one")),
		)
		if !errors.Is(err, ErrIncomparable) {
			t.Errorf("expected ErrIncomparable, got %v", err)
		}
	})
}

func TestCategorical(t *testing.T) {
	expected := newDataset(t, col("status", "open", "Closed", nil, "x"))
	actual := newDataset(t, col("status", "open", "closed", nil, nil))

	outcome, err := NewCategorical().Compare(expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	detail, ok := outcome.Differences["status"].(ValueMismatch)
	if !ok {
		t.Fatalf("expected ValueMismatch, got %T", outcome.Differences["status"])
	}

	wantExpected := map[int]interface{}{1: "Closed", 3: "x"}
	wantActual := map[int]interface{}{1: "closed", 3: nil}
	if !reflect.DeepEqual(detail.Expected, wantExpected) {
		t.Errorf("expected %v, got %v", wantExpected, detail.Expected)
	}
	if !reflect.DeepEqual(detail.Actual, wantActual) {
		t.Errorf("expected %v, got %v", wantActual, detail.Actual)
	}
}

func TestDateTime(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	plusTwo := time.FixedZone("UTC+2", 2*60*60)

	tests := []struct {
		name     string
		aware    bool
		allowed  float64
		exp, act time.Time
		mismatch bool
	}{
		{"identical", true, 0, base, base, false},
		{"within skew", true, 5, base, base.Add(4 * time.Second), false},
		{"outside skew", true, 5, base, base.Add(6 * time.Second), true},
		{"same instant other zone, aware", true, 0, base, base.In(plusTwo), false},
		{"same instant other zone, naive", false, 0, base, base.In(plusTwo), true},
		{"same wall clock other zone, naive", false, 0, base,
			time.Date(2024, 3, 1, 12, 0, 0, 0, plusTwo), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewDateTime(tt.aware, tt.allowed)
			if err != nil {
				t.Fatal(err)
			}
			outcome, err := s.Compare(
				newDataset(t, col("at", tt.exp)),
				newDataset(t, col("at", tt.act)),
			)
			if err != nil {
				t.Fatal(err)
			}
			_, found := outcome.Differences["at"]
			if found != tt.mismatch {
				t.Errorf("mismatch = %v, want %v (%v)", found, tt.mismatch, outcome.Differences)
			}
		})
	}

	t.Run("detail formatting", func(t *testing.T) {
		s, _ := NewDateTime(true, 0)
		outcome, err := s.Compare(
			newDataset(t, col("at", base)),
			newDataset(t, col("at", base.Add(90*time.Second))),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail := outcome.Differences["at"].(TimestampMismatch)
		if detail.Expected[0] != "2024-03-01 12:00:00+0000" {
			t.Errorf("unexpected expected rendering %q", detail.Expected[0])
		}
		if detail.Actual[0] != "2024-03-01 12:01:30+0000" {
			t.Errorf("unexpected actual rendering %q", detail.Actual[0])
		}
		if detail.DifferenceSeconds[0] != 90 {
			t.Errorf("expected 90 seconds, got %v", detail.DifferenceSeconds[0])
		}
	})

	t.Run("negative skew", func(t *testing.T) {
		if _, err := NewDateTime(true, -1); !errors.Is(err, ErrNegativeSkew) {
			t.Errorf("expected ErrNegativeSkew, got %v", err)
		}
	})
}

func TestNull(t *testing.T) {
	t.Run("empty string equals missing when flag set", func(t *testing.T) {
		outcome, err := NewNull(true).Compare(
			newDataset(t, col("note", "", "null/empty", "a")),
			newDataset(t, col("note", nil, nil, "a")),
		)
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Passed() {
			t.Errorf("expected pass, got %v", outcome.Differences)
		}
	})

	t.Run("empty string differs from missing when flag unset", func(t *testing.T) {
		outcome, err := NewNull(false).Compare(
			newDataset(t, col("note", "", "a", "b")),
			newDataset(t, col("note", nil, "a", nil)),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail, ok := outcome.Differences["note"].(NullMismatch)
		if !ok {
			t.Fatalf("expected NullMismatch, got %T", outcome.Differences["note"])
		}
		want := NullMismatch{
			MismatchedRows:      2,
			ExpectedNullCount:   0,
			ActualNullCount:     2,
			RowsWithDifferences: []int{0, 2},
		}
		if !reflect.DeepEqual(detail, want) {
			t.Errorf("expected %+v, got %+v", want, detail)
		}
	})

	t.Run("checks every column kind", func(t *testing.T) {
		outcome, err := NewNull(true).Compare(
			newDataset(t, col("n", 1.0, nil), col("b", true, false)),
			newDataset(t, col("n", 1.0, 2.0), col("b", nil, false)),
		)
		if err != nil {
			t.Fatal(err)
		}
		if len(outcome.Differences) != 2 {
			t.Errorf("expected both columns flagged, got %v", outcome.Differences)
		}
	})
}

func TestDistribution(t *testing.T) {
	t.Run("zero expected mean is never flagged", func(t *testing.T) {
		outcome, err := mustDistribution(t, 5).Compare(
			newDataset(t, col("v", -1.0, 1.0)),
			newDataset(t, col("v", 100.0, 300.0)),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail, ok := outcome.Differences["v"].(DistributionMismatch)
		if !ok {
			t.Fatalf("expected DistributionMismatch, got %T", outcome.Differences["v"])
		}
		if _, flagged := detail["mean"]; flagged {
			t.Errorf("mean with zero baseline must not be flagged: %v", detail)
		}
		if _, flagged := detail["median"]; flagged {
			t.Errorf("median with zero baseline must not be flagged: %v", detail)
		}
		if _, flagged := detail["max"]; !flagged {
			t.Errorf("expected max to be flagged: %v", detail)
		}
	})

	t.Run("row order does not matter", func(t *testing.T) {
		outcome, err := mustDistribution(t, 0).Compare(
			newDataset(t, col("v", 1.0, 2.0, 3.0, 4.0)),
			newDataset(t, col("v", 4.0, 2.0, 1.0, 3.0)),
		)
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Passed() {
			t.Errorf("expected pass, got %v", outcome.Differences)
		}
	})

	t.Run("flags mean above threshold", func(t *testing.T) {
		outcome, err := mustDistribution(t, 5).Compare(
			newDataset(t, col("v", 10.0, 10.0)),
			newDataset(t, col("v", 11.0, 11.0)),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail := outcome.Differences["v"].(DistributionMismatch)
		mean, ok := detail["mean"]
		if !ok {
			t.Fatalf("expected mean to be flagged: %v", detail)
		}
		if math.Abs(mean.DifferencePct-10) > 1e-9 {
			t.Errorf("expected 10%% difference, got %v", mean.DifferencePct)
		}
		if _, ok := detail["std"]; ok {
			t.Errorf("std of constant column is zero and must not be flagged")
		}
	})

	t.Run("negative baseline is flagged", func(t *testing.T) {
		outcome, err := mustDistribution(t, 5).Compare(
			newDataset(t, col("refund", -10.0, -10.0)),
			newDataset(t, col("refund", -20.0, -20.0)),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail, ok := outcome.Differences["refund"].(DistributionMismatch)
		if !ok {
			t.Fatalf("expected DistributionMismatch, got %v", outcome.Differences)
		}
		if mean := detail["mean"]; mean.DifferencePct != 100 {
			t.Errorf("expected mean to move by 100%%, got %+v", mean)
		}
	})

	t.Run("negative threshold", func(t *testing.T) {
		if _, err := NewDistribution(-0.1); !errors.Is(err, ErrNegativeThreshold) {
			t.Errorf("expected ErrNegativeThreshold, got %v", err)
		}
	})
}

func TestStats(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := mean(xs); got != 5 {
		t.Errorf("mean = %v, want 5", got)
	}
	if got := median(xs); got != 4.5 {
		t.Errorf("median = %v, want 4.5", got)
	}
	if got := sampleStd(xs); math.Abs(got-2.138089935299395) > 1e-12 {
		t.Errorf("sampleStd = %v, want 2.138...", got)
	}
	if got := minOf(xs); got != 2 {
		t.Errorf("min = %v, want 2", got)
	}
	if got := maxOf(xs); got != 9 {
		t.Errorf("max = %v, want 9", got)
	}
	if !math.IsNaN(sampleStd([]float64{1})) {
		t.Errorf("sampleStd of one value should be NaN")
	}
	if !math.IsNaN(mean(nil)) {
		t.Errorf("mean of no values should be NaN")
	}

	// median must not reorder its input
	in := []float64{3, 1, 2}
	median(in)
	if in[0] != 3 || in[1] != 1 || in[2] != 2 {
		t.Errorf("median modified its input: %v", in)
	}
}

func TestPattern(t *testing.T) {
	t.Run("flags non-conforming actual values", func(t *testing.T) {
		p, err := NewPattern(map[string]string{"email": `^\S+@\S+$`})
		if err != nil {
			t.Fatal(err)
		}
		outcome, err := p.Compare(
			newDataset(t, col("email", "a@example.com", "b@example.com")),
			newDataset(t, col("email", "a@example.com", "not-an-email")),
		)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Status != StatusFail {
			t.Fatalf("expected fail, got %s", outcome.Status)
		}
		detail := outcome.Differences["email"].(PatternMismatch)
		if detail.MismatchedRows != 1 {
			t.Errorf("expected 1 mismatched row, got %d", detail.MismatchedRows)
		}
		if detail.InvalidValues[1] != "not-an-email" {
			t.Errorf("expected row 1 in invalid values, got %v", detail.InvalidValues)
		}
	})

	t.Run("match is anchored at the start only", func(t *testing.T) {
		p, err := NewPattern(map[string]string{"code": `[A-Z]{2}`})
		if err != nil {
			t.Fatal(err)
		}
		outcome, err := p.Compare(
			newDataset(t, col("code", "AB123", "AB")),
			newDataset(t, col("code", "1AB", "ABxyz")),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail := outcome.Differences["code"].(PatternMismatch)
		if detail.MismatchedRows != 1 {
			t.Errorf("expected 1 mismatched row, got %d", detail.MismatchedRows)
		}
		if _, ok := detail.InvalidValues[0]; !ok || len(detail.InvalidValues) != 1 {
			t.Errorf("expected only row 0 invalid, got %v", detail.InvalidValues)
		}
	})

	t.Run("both sides non-conforming is not a mismatch", func(t *testing.T) {
		p, _ := NewPattern(map[string]string{"email": `\S+@\S+`})
		outcome, err := p.Compare(
			newDataset(t, col("email", "bad", nil)),
			newDataset(t, col("email", "worse", nil)),
		)
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Passed() {
			t.Errorf("expected pass, got %v", outcome.Differences)
		}
	})

	t.Run("columns without a pattern are skipped", func(t *testing.T) {
		p, _ := NewPattern(map[string]string{"email": `\S+@\S+`})
		outcome, err := p.Compare(
			newDataset(t, col("name", "a")),
			newDataset(t, col("name", "b")),
		)
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Passed() {
			t.Errorf("expected pass, got %v", outcome.Differences)
		}
	})

	t.Run("invalid expression", func(t *testing.T) {
		if _, err := NewPattern(map[string]string{"x": `(`}); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
	})
}

func TestComposite(t *testing.T) {
	expected := newDataset(t, col("amt", 1.0, 2.0), col("label", "a", "b"))
	actual := newDataset(t, col("amt", 1.0, 2.0), col("label", "a", "c"))

	t.Run("only failed strategies are reported", func(t *testing.T) {
		c := NewComposite(mustNumeric(t, 0), NewCategorical())
		outcome, err := c.Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Status != StatusFail {
			t.Fatalf("expected fail, got %s", outcome.Status)
		}
		if len(outcome.Differences) != 1 {
			t.Fatalf("expected exactly one failed strategy, got %v", outcome.Differences)
		}
		if _, ok := outcome.Differences["NumericValidation"]; ok {
			t.Errorf("passing numeric strategy must not be reported")
		}
		nested, ok := outcome.Differences["CategoricalValidation"].(Differences)
		if !ok {
			t.Fatalf("expected nested Differences, got %T", outcome.Differences["CategoricalValidation"])
		}
		if _, ok := nested["label"]; !ok {
			t.Errorf("expected label in nested differences, got %v", nested)
		}
	})

	t.Run("passes when every strategy passes", func(t *testing.T) {
		c := NewComposite(mustNumeric(t, 0), NewNull(true))
		outcome, err := c.Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Passed() {
			t.Errorf("expected pass, got %v", outcome.Differences)
		}
	})

	t.Run("empty composite passes", func(t *testing.T) {
		outcome, err := NewComposite().Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		if !outcome.Passed() {
			t.Errorf("expected pass")
		}
	})

	t.Run("repeated names get distinct keys", func(t *testing.T) {
		c := NewComposite(NewCategorical(), mustNumeric(t, 0), NewCategorical())
		outcome, err := c.Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := outcome.Differences["CategoricalValidation"]; !ok {
			t.Errorf("expected CategoricalValidation key, got %v", outcome.Differences)
		}
		if _, ok := outcome.Differences["CategoricalValidation#2"]; !ok {
			t.Errorf("expected CategoricalValidation#2 key, got %v", outcome.Differences)
		}
	})

	t.Run("nested composite", func(t *testing.T) {
		inner := NewComposite(NewCategorical())
		outer := NewComposite(inner, mustNumeric(t, 0))
		outcome, err := outer.Compare(expected, actual)
		if err != nil {
			t.Fatal(err)
		}
		nested := outcome.Differences["CompositeValidation"].(Differences)
		if _, ok := nested["CategoricalValidation"]; !ok {
			t.Errorf("expected nested categorical failure, got %v", nested)
		}
	})

	t.Run("sub-strategy error propagates", func(t *testing.T) {
		c := NewComposite(NewCategorical(), mustNumeric(t, 0))
		_, err := c.Compare(expected, newDataset(t, col("label", "a", "b")))
		if !errors.Is(err, ErrColumnMissing) {
			t.Errorf("expected ErrColumnMissing, got %v", err)
		}
	})
}

func TestStrategiesAreIdempotent(t *testing.T) {
	p, _ := NewPattern(map[string]string{"label": `[a-z]`})
	d, _ := NewDateTime(true, 0)
	dist, _ := NewDistribution(1)
	strategies := []Strategy{
		mustNumeric(t, 0.01),
		NewCategorical(),
		d,
		NewNull(true),
		dist,
		p,
		NewComposite(mustNumeric(t, 0), NewCategorical(), NewNull(false)),
	}

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expected := newDataset(t,
		col("amt", 1.0, 2.0, nil),
		col("label", "a", "", "C"),
		col("at", ts, ts, nil),
	)
	actual := newDataset(t,
		col("amt", 1.5, 2.0, 3.0),
		col("label", "a", nil, "c"),
		col("at", ts, ts.Add(time.Hour), nil),
	)

	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			first, err := s.Compare(expected, actual)
			if err != nil {
				t.Fatal(err)
			}
			second, err := s.Compare(expected, actual)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("outcomes differ between runs:\n%v\n%v", first, second)
			}
		})
	}

	amt, _ := expected.Column("amt")
	if amt.Values[0] != 1.0 || amt.Values[2] != nil {
		t.Errorf("expected dataset was modified: %v", amt.Values)
	}
}

func TestComparisonIsPositional(t *testing.T) {
	// Rows are compared by position; reordering one side produces mismatches
	// even when both sides hold the same multiset of rows.
	expected := newDataset(t, col("id", 1.0, 2.0, 3.0), col("name", "a", "b", "c"))
	shuffled := newDataset(t, col("id", 3.0, 1.0, 2.0), col("name", "c", "a", "b"))

	numeric, err := mustNumeric(t, 0).Compare(expected, shuffled)
	if err != nil {
		t.Fatal(err)
	}
	if numeric.Passed() {
		t.Errorf("expected shuffled rows to produce numeric mismatches")
	}

	categorical, err := NewCategorical().Compare(expected, shuffled)
	if err != nil {
		t.Fatal(err)
	}
	if categorical.Passed() {
		t.Errorf("expected shuffled rows to produce categorical mismatches")
	}

	t.Run("shorter side reads as missing", func(t *testing.T) {
		outcome, err := NewNull(true).Compare(
			newDataset(t, col("id", 1.0, 2.0)),
			newDataset(t, col("id", 1.0)),
		)
		if err != nil {
			t.Fatal(err)
		}
		detail := outcome.Differences["id"].(NullMismatch)
		if detail.MismatchedRows != 1 || detail.RowsWithDifferences[0] != 1 {
			t.Errorf("expected row 1 flagged, got %+v", detail)
		}
	})
}

func TestNumericIntegersCompareExactly(t *testing.T) {
	expected := newDataset(t, col("id", int64(9007199254740993), int64(3), int64(math.MinInt64)))
	actual := newDataset(t, col("id", int64(9007199254740992), 3.0, int64(math.MaxInt64)))

	outcome, err := mustNumeric(t, 0).Compare(expected, actual)
	if err != nil {
		t.Fatal(err)
	}
	detail, ok := outcome.Differences["id"].(ValueMismatch)
	if !ok {
		t.Fatalf("expected ValueMismatch for id, got %v", outcome.Differences)
	}
	if detail.Expected[0] != int64(9007199254740993) || detail.Actual[0] != int64(9007199254740992) {
		t.Errorf("row 0 should differ by one, got %v", detail)
	}
	if _, ok := detail.Expected[1]; ok {
		t.Errorf("integer 3 and float 3.0 should be equal")
	}
	if _, ok := detail.Expected[2]; !ok {
		t.Errorf("the full int64 range should be a difference")
	}

	outcome, err = mustNumeric(t, 1).Compare(
		newDataset(t, col("id", int64(9007199254740993))),
		newDataset(t, col("id", int64(9007199254740992))))
	if err != nil {
		t.Fatal(err)
	}
	if !outcome.Passed() {
		t.Errorf("a difference of 1 is within tolerance 1, got %v", outcome.Differences)
	}
}

func TestExpectedValuesOfTheWrongKind(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d, _ := NewDateTime(true, 0)

	tests := []struct {
		name     string
		strategy Strategy
		expected dataset.Column
		actual   dataset.Column
	}{
		{"numeric", mustNumeric(t, 0),
			dataset.Column{Name: "x", Kind: dataset.KindNumeric, Values: []interface{}{"abc"}}, col("x", 0.0)},
		{"distribution", mustDistribution(t, 5),
			dataset.Column{Name: "x", Kind: dataset.KindNumeric, Values: []interface{}{"abc"}}, col("x", 0.0)},
		{"datetime", d,
			dataset.Column{Name: "x", Kind: dataset.KindTimestamp, Values: []interface{}{"yesterday"}}, col("x", ts)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.strategy.Compare(newDataset(t, tt.expected), newDataset(t, tt.actual))
			if !errors.Is(err, ErrIncomparable) {
				t.Fatalf("expected ErrIncomparable, got %v", err)
			}
		})
	}
}

func TestNonFiniteDetailsSerialize(t *testing.T) {
	numeric, err := mustNumeric(t, 0).Compare(
		newDataset(t, col("x", math.Inf(1))),
		newDataset(t, col("x", 1.0)))
	if err != nil {
		t.Fatal(err)
	}
	if numeric.Passed() {
		t.Fatal("expected +Inf vs 1 to fail")
	}

	distribution, err := mustDistribution(t, 5).Compare(
		newDataset(t, col("x", 1.0, 2.0)),
		newDataset(t, col("x", 1.0, math.Inf(-1))))
	if err != nil {
		t.Fatal(err)
	}
	if distribution.Passed() {
		t.Fatal("expected -Inf to move the distribution")
	}

	for name, outcome := range map[string]Outcome{"numeric": numeric, "distribution": distribution} {
		out, err := json.Marshal(outcome)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", name, err)
		}
		if !strings.Contains(string(out), "Inf\"") {
			t.Errorf("%s: expected infinity rendered as text, got %s", name, out)
		}
	}

	out, err := json.Marshal(numeric)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"status":"fail","differences":{"x":{"expected":{"0":"+Inf"},"actual":{"0":1}}}}`
	if string(out) != want {
		t.Errorf("unexpected JSON\n got %s\nwant %s", out, want)
	}
}
