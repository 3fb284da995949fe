package validation

import (
	"fmt"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// Composite runs every sub-strategy in order and fails if any of them fails.
// Differences are keyed by sub-strategy name; the second and later
// occurrences of a repeated name are keyed Name#2, Name#3 and so on.
type Composite struct {
	strategies []Strategy
	keys       []string
}

// NewComposite runs strategies in the given order and keys their
// failures by strategy name.
func NewComposite(strategies ...Strategy) *Composite {
	c := &Composite{
		strategies: append([]Strategy(nil), strategies...),
		keys:       make([]string, len(strategies)),
	}
	seen := map[string]int{}
	for i, s := range strategies {
		name := s.Name()
		seen[name]++
		if seen[name] == 1 {
			c.keys[i] = name
		} else {
			c.keys[i] = fmt.Sprintf("%s#%d", name, seen[name])
		}
	}
	return c
}

func (c *Composite) Name() string { return "CompositeValidation" }

func (c *Composite) Compare(expected, actual *dataset.Dataset) (Outcome, error) {
	diffs := Differences{}
	for i, s := range c.strategies {
		outcome, err := s.Compare(expected, actual)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s: %w", c.keys[i], err)
		}
		if !outcome.Passed() {
			diffs[c.keys[i]] = outcome.Differences
		}
	}
	return NewOutcome(diffs), nil
}
