package validation

import (
	"fmt"
	"time"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// TimestampLayout is the rendering of timestamps in mismatch details
const TimestampLayout = "2006-01-02 15:04:05-0700"

// DateTime compares timestamp columns within an allowed skew
type DateTime struct {
	timezoneAware bool
	allowed       time.Duration
}

// NewDateTime returns a timestamp strategy. When timezoneAware is false the
// zone is stripped and wall-clock times are compared.
func NewDateTime(timezoneAware bool, allowedSeconds float64) (*DateTime, error) {
	if allowedSeconds < 0 {
		return nil, fmt.Errorf("%w, got %g", ErrNegativeSkew, allowedSeconds)
	}
	return &DateTime{
		timezoneAware: timezoneAware,
		allowed:       time.Duration(allowedSeconds * float64(time.Second)),
	}, nil
}

func (d *DateTime) Name() string { return "DateTimeValidation" }

func (d *DateTime) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	pairs, err := columnPairs(expected, actual, dataset.KindTimestamp)
	if err != nil {
		return Outcome{}, err
	}

	diffs := Differences{}
	rows := rowSpan(expected, actual)
	for _, pair := range pairs {
		exp, act := pair[0], pair[1]
		var mismatch *TimestampMismatch

		for i := 0; i < rows; i++ {
			ev, av := exp.Value(i), act.Value(i)
			if ev == nil || av == nil {
				continue
			}
			et, ok := dataset.Time(ev)
			if !ok {
				return Outcome{}, fmt.Errorf("%w: column %s row %d: expected value %v is not a timestamp", ErrIncomparable, exp.Name, i, ev)
			}
			at, ok := dataset.Time(av)
			if !ok {
				return Outcome{}, fmt.Errorf("%w: column %s row %d: actual value %v is not a timestamp", ErrIncomparable, exp.Name, i, av)
			}

			delta := d.normalize(et).Sub(d.normalize(at))
			if delta < 0 {
				delta = -delta
			}
			if delta <= d.allowed {
				continue
			}

			if mismatch == nil {
				mismatch = &TimestampMismatch{
					Expected:          map[int]string{},
					Actual:            map[int]string{},
					DifferenceSeconds: map[int]float64{},
				}
			}
			mismatch.Expected[i] = et.Format(TimestampLayout)
			mismatch.Actual[i] = at.Format(TimestampLayout)
			mismatch.DifferenceSeconds[i] = delta.Seconds()
		}

		if mismatch != nil {
			diffs[exp.Name] = *mismatch
		}
	}

	return NewOutcome(diffs), nil
}

// normalize drops the zone when comparisons are not timezone-aware
func (d *DateTime) normalize(t time.Time) time.Time {
	if d.timezoneAware {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
