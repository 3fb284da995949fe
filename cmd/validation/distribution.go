package validation

import (
	"fmt"
	"math"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// DefaultThresholdPct is the distribution threshold used when none is configured
const DefaultThresholdPct = 5.0

// Distribution compares summary statistics of numeric columns. It is
// insensitive to row order.
type Distribution struct {
	thresholdPct float64
}

// NewDistribution returns a distribution strategy flagging statistics that
// move by more than thresholdPct percent.
func NewDistribution(thresholdPct float64) (*Distribution, error) {
	if thresholdPct < 0 || math.IsNaN(thresholdPct) {
		return nil, fmt.Errorf("%w, got %g", ErrNegativeThreshold, thresholdPct)
	}
	return &Distribution{thresholdPct: thresholdPct}, nil
}

func (d *Distribution) Name() string { return "DistributionValidation" }

func (d *Distribution) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	pairs, err := columnPairs(expected, actual, dataset.KindNumeric)
	if err != nil {
		return Outcome{}, err
	}

	diffs := Differences{}
	for _, pair := range pairs {
		exp, act := pair[0], pair[1]

		expValues, err := presentFloats(exp)
		if err != nil {
			return Outcome{}, err
		}
		actValues, err := presentFloats(act)
		if err != nil {
			return Outcome{}, err
		}

		flagged := DistributionMismatch{}
		for _, stat := range summaryStats {
			e, a := stat.fn(expValues), stat.fn(actValues)
			// a zero or undefined baseline has no relative difference
			if e == 0 || math.IsNaN(e) {
				continue
			}
			pct := math.Abs(e-a) / math.Abs(e) * 100
			if pct > d.thresholdPct {
				flagged[stat.name] = StatDelta{Expected: e, Actual: a, DifferencePct: pct}
			}
		}

		if len(flagged) > 0 {
			diffs[exp.Name] = flagged
		}
	}

	return NewOutcome(diffs), nil
}

// presentFloats returns the non-missing values of a column as floats
func presentFloats(col *dataset.Column) ([]float64, error) {
	out := make([]float64, 0, col.Len())
	for i, v := range col.Values {
		if v == nil {
			continue
		}
		f, ok := dataset.Float(v)
		if !ok {
			return nil, fmt.Errorf("%w: column %s row %d: %v is not numeric", ErrIncomparable, col.Name, i, v)
		}
		out = append(out, f)
	}
	return out, nil
}
