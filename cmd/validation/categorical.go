package validation

import "github.com/airframesio/data-validator/cmd/dataset"

// Categorical requires text columns to match exactly, case-sensitively
type Categorical struct{}

// NewCategorical returns a strategy comparing text columns for equality
func NewCategorical() *Categorical { return &Categorical{} }

func (c *Categorical) Name() string { return "CategoricalValidation" }

func (c *Categorical) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	pairs, err := columnPairs(expected, actual, dataset.KindText)
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
			if valuesEqual(ev, av) {
				continue
			}
			if mismatch == nil {
				mismatch = &ValueMismatch{Expected: map[int]interface{}{}, Actual: map[int]interface{}{}}
			}
			mismatch.Expected[i] = ev
			mismatch.Actual[i] = av
		}

		if mismatch != nil {
			diffs[exp.Name] = *mismatch
		}
	}

	return NewOutcome(diffs), nil
}
