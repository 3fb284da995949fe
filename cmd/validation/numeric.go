package validation

import (
	"fmt"
	"math"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// DefaultTolerance is the numeric tolerance used when none is configured
const DefaultTolerance = 1e-6

// Numeric compares numeric columns within an absolute tolerance
type Numeric struct {
	tolerance float64
}

// NewNumeric returns a numeric strategy. tolerance must be non-negative.
func NewNumeric(tolerance float64) (*Numeric, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, fmt.Errorf("%w, got %g", ErrNegativeTolerance, tolerance)
	}
	return &Numeric{tolerance: tolerance}, nil
}

func (n *Numeric) Name() string { return "NumericValidation" }

func (n *Numeric) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	pairs, err := columnPairs(expected, actual, dataset.KindNumeric)
	if err != nil {
		return Outcome{}, err
	}

	diffs := Differences{}
	rows := rowSpan(expected, actual)
	for _, pair := range pairs {
		exp, act := pair[0], pair[1]
		var mismatch *ValueMismatch

		for i := 0; i < rows; i++ {
			ev, av := exp.Value(i), act.Value(i)
			if ev == nil || av == nil {
				continue
			}
			differs, err := n.differs(ev, av)
			if err != nil {
				return Outcome{}, fmt.Errorf("%w: column %s row %d: %w", ErrIncomparable, exp.Name, i, err)
			}
			if differs {
				if mismatch == nil {
					mismatch = &ValueMismatch{Expected: map[int]interface{}{}, Actual: map[int]interface{}{}}
				}
				mismatch.Expected[i] = ev
				mismatch.Actual[i] = av
			}
		}

		if mismatch != nil {
			diffs[exp.Name] = *mismatch
		}
	}

	return NewOutcome(diffs), nil
}

// differs reports whether |e-a| exceeds the tolerance. Two integers are
// subtracted exactly; anything else is compared as float64.
func (n *Numeric) differs(ev, av interface{}) (bool, error) {
	ef, ok := dataset.Float(ev)
	if !ok {
		return false, fmt.Errorf("expected value %v is not numeric", ev)
	}
	af, ok := dataset.Float(av)
	if !ok {
		return false, fmt.Errorf("actual value %v is not numeric", av)
	}

	ei, eInt := dataset.Int(ev)
	ai, aInt := dataset.Int(av)
	if eInt && aInt {
		return intDistanceExceeds(ei, ai, n.tolerance), nil
	}
	// Inf-Inf is NaN and never exceeds the tolerance
	return math.Abs(ef-af) > n.tolerance, nil
}

// intDistanceExceeds computes |a-b| in uint64, which holds every int64 distance
func intDistanceExceeds(a, b int64, tolerance float64) bool {
	var distance uint64
	if a >= b {
		distance = uint64(a) - uint64(b)
	} else {
		distance = uint64(b) - uint64(a)
	}
	if tolerance >= math.MaxUint64 {
		return false
	}
	// distance is whole, so it exceeds tolerance iff it exceeds floor(tolerance)
	return distance > uint64(tolerance)
}
