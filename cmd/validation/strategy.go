// Package validation compares two datasets column by column under a
// pluggable notion of equality.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// Static errors for comparison failures. These are contract violations or
// unusable inputs, never a "fail" verdict.
var (
	ErrValidation    = errors.New("validation failed")
	ErrColumnMissing = errors.New("column missing from actual dataset")
	ErrIncomparable  = errors.New("values cannot be compared")

	ErrNegativeTolerance = errors.New("tolerance must be >= 0")
	ErrNegativeSkew      = errors.New("allowed time difference must be >= 0")
	ErrNegativeThreshold = errors.New("threshold percentage must be >= 0")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrEmptyComposite    = errors.New("composite strategy needs at least one sub-strategy")
	ErrUnknownStrategy   = errors.New("unknown strategy type")
)

// Strategy is a column-wise comparison algorithm. Both datasets are expected
// to expose the same column names; Compare must not modify either of them.
type Strategy interface {
	Name() string
	Compare(expected, actual *dataset.Dataset) (Outcome, error)
}

// columnPairs returns the expected columns of the given kind with their
// actual counterparts. A missing actual column is a caller error.
func columnPairs(expected, actual *dataset.Dataset, kinds ...dataset.Kind) ([][2]*dataset.Column, error) {
	var pairs [][2]*dataset.Column
	for _, col := range expected.Columns() {
		if len(kinds) > 0 && !hasKind(col.Kind, kinds) {
			continue
		}
		other, ok := actual.Column(col.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrColumnMissing, col.Name)
		}
		pairs = append(pairs, [2]*dataset.Column{col, other})
	}
	return pairs, nil
}

func hasKind(k dataset.Kind, kinds []dataset.Kind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

// rowSpan is the number of positions compared between two datasets
func rowSpan(expected, actual *dataset.Dataset) int {
	return max(expected.RowCount(), actual.RowCount())
}

// valuesEqual compares two normalized cells; two missing cells are equal
func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int64, float64:
		return numbersEqual(a, b)
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// numbersEqual compares numeric cells, exactly when both are integers
func numbersEqual(a, b interface{}) bool {
	ai, aInt := dataset.Int(a)
	bi, bInt := dataset.Int(b)
	if aInt && bInt {
		return ai == bi
	}
	af, aOK := dataset.Float(a)
	bf, bOK := dataset.Float(b)
	return aOK && bOK && af == bf
}
