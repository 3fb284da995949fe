package validation

import "github.com/airframesio/data-validator/cmd/dataset"

// emptyMarker is the literal some exports write for an empty cell
const emptyMarker = "null/empty"

// Null checks that both sides agree on which cells are missing
type Null struct {
	treatEmptyAsNull bool
}

// NewNull returns a null strategy. With treatEmptyAsNull, empty strings and
// the empty marker count as missing.
func NewNull(treatEmptyAsNull bool) *Null {
	return &Null{treatEmptyAsNull: treatEmptyAsNull}
}

func (n *Null) Name() string { return "NullValidation" }

func (n *Null) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	pairs, err := columnPairs(expected, actual)
	if err != nil {
		return Outcome{}, err
	}

	diffs := Differences{}
	rows := rowSpan(expected, actual)
	for _, pair := range pairs {
		exp, act := pair[0], pair[1]
		detail := NullMismatch{}

		for i := 0; i < rows; i++ {
			en := n.isNull(exp.Value(i))
			an := n.isNull(act.Value(i))
			if en {
				detail.ExpectedNullCount++
			}
			if an {
				detail.ActualNullCount++
			}
			if en != an {
				detail.MismatchedRows++
				detail.RowsWithDifferences = append(detail.RowsWithDifferences, i)
			}
		}

		if detail.MismatchedRows > 0 {
			diffs[exp.Name] = detail
		}
	}

	return NewOutcome(diffs), nil
}

func (n *Null) isNull(v interface{}) bool {
	if v == nil {
		return true
	}
	if !n.treatEmptyAsNull {
		return false
	}
	s, ok := v.(string)
	return ok && (s == "" || s == emptyMarker)
}
