package dataset

import (
	"encoding/json"
	"math"
	"time"
)

// Kind is the logical type of a column
type Kind int

const (
	KindNull Kind = iota
	KindNumeric
	KindText
	KindBool
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	default:
		return "null"
	}
}

// Normalize converts a raw value from a driver or decoder into one of the
// representations a Dataset stores: nil, int64, float64, string, bool or
// time.Time. Integers stay int64 so they compare exactly; only unsigned values
// past the int64 range become float64. Unknown types are kept as-is and make
// their column text.
func Normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return v
	case float32:
		if math.IsNaN(float64(v)) {
			return nil
		}
		return float64(v)
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return normalizeUint(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return normalizeUint(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []byte:
		return string(v)
	case string, bool, time.Time:
		return v
	case *time.Time:
		if v == nil {
			return nil
		}
		return *v
	default:
		return v
	}
}

func normalizeUint(v uint64) interface{} {
	if v <= math.MaxInt64 {
		return int64(v)
	}
	return float64(v)
}

// kindOf returns the kind of a normalized, non-nil value
func kindOf(value interface{}) Kind {
	switch value.(type) {
	case int64, float64:
		return KindNumeric
	case bool:
		return KindBool
	case time.Time:
		return KindTimestamp
	default:
		return KindText
	}
}

// inferKind determines the column kind from its non-missing values.
// Mixed columns degrade to text.
func inferKind(values []interface{}) (Kind, bool) {
	kind := KindNull
	found := false
	for _, v := range values {
		if v == nil {
			continue
		}
		k := kindOf(v)
		if !found {
			kind = k
			found = true
			continue
		}
		if k != kind {
			return KindText, true
		}
	}
	return kind, found
}

// Float returns the numeric value of a normalized cell. Integers past 2^53
// lose precision; use Int to compare them exactly.
func Float(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int returns the value of a normalized integer cell
func Int(value interface{}) (int64, bool) {
	i, ok := value.(int64)
	return i, ok
}

// Time returns the timestamp value of a normalized cell
func Time(value interface{}) (time.Time, bool) {
	t, ok := value.(time.Time)
	return t, ok
}
