package validation

import (
	"fmt"
	"strings"
)

// StrategyConfig is the declarative form of a strategy as read from the
// config file. Unset optional fields take their defaults.
type StrategyConfig struct {
	Type string `mapstructure:"type" yaml:"type"`

	// numeric
	Tolerance *float64 `mapstructure:"tolerance" yaml:"tolerance,omitempty"`

	// datetime
	TimezoneAware              *bool   `mapstructure:"timezone_aware" yaml:"timezone_aware,omitempty"`
	AllowTimeDifferenceSeconds float64 `mapstructure:"allow_time_difference_seconds" yaml:"allow_time_difference_seconds,omitempty"`

	// null
	TreatEmptyAsNull *bool `mapstructure:"treat_empty_as_null" yaml:"treat_empty_as_null,omitempty"`

	// distribution
	ThresholdPct *float64 `mapstructure:"threshold_pct" yaml:"threshold_pct,omitempty"`

	// pattern
	Patterns map[string]string `mapstructure:"patterns" yaml:"patterns,omitempty"`

	// composite
	Strategies []StrategyConfig `mapstructure:"strategies" yaml:"strategies,omitempty"`
}

// WithDefaultTolerance returns a copy of c in which every numeric strategy
// without an explicit tolerance uses tolerance.
func (c StrategyConfig) WithDefaultTolerance(tolerance float64) StrategyConfig {
	if c.Tolerance == nil && normalizeType(c.Type) == "numeric" {
		t := tolerance
		c.Tolerance = &t
	}
	if len(c.Strategies) > 0 {
		subs := make([]StrategyConfig, len(c.Strategies))
		for i, sub := range c.Strategies {
			subs[i] = sub.WithDefaultTolerance(tolerance)
		}
		c.Strategies = subs
	}
	return c
}

// FromConfig builds a strategy, recursively for composites
func FromConfig(c StrategyConfig) (Strategy, error) {
	switch normalizeType(c.Type) {
	case "numeric":
		tolerance := DefaultTolerance
		if c.Tolerance != nil {
			tolerance = *c.Tolerance
		}
		return NewNumeric(tolerance)

	case "categorical":
		return NewCategorical(), nil

	case "datetime":
		aware := true
		if c.TimezoneAware != nil {
			aware = *c.TimezoneAware
		}
		return NewDateTime(aware, c.AllowTimeDifferenceSeconds)

	case "null":
		treatEmpty := true
		if c.TreatEmptyAsNull != nil {
			treatEmpty = *c.TreatEmptyAsNull
		}
		return NewNull(treatEmpty), nil

	case "distribution":
		threshold := DefaultThresholdPct
		if c.ThresholdPct != nil {
			threshold = *c.ThresholdPct
		}
		return NewDistribution(threshold)

	case "pattern":
		return NewPattern(c.Patterns)

	case "composite":
		if len(c.Strategies) == 0 {
			return nil, ErrEmptyComposite
		}
		subs := make([]Strategy, 0, len(c.Strategies))
		for i, sub := range c.Strategies {
			s, err := FromConfig(sub)
			if err != nil {
				return nil, fmt.Errorf("composite strategy %d: %w", i, err)
			}
			subs = append(subs, s)
		}
		return NewComposite(subs...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Type)
	}
}

// normalizeType accepts both the short type names and the strategy names,
// e.g. "numeric" and "NumericValidation".
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	return strings.TrimSuffix(t, "validation")
}

// Describe renders a strategy and its settings for log lines
func Describe(s Strategy) string {
	switch v := s.(type) {
	case *Numeric:
		return fmt.Sprintf("%s(tolerance=%g)", v.Name(), v.tolerance)
	case *DateTime:
		return fmt.Sprintf("%s(timezone_aware=%t, allowed=%s)", v.Name(), v.timezoneAware, v.allowed)
	case *Null:
		return fmt.Sprintf("%s(treat_empty_as_null=%t)", v.Name(), v.treatEmptyAsNull)
	case *Distribution:
		return fmt.Sprintf("%s(threshold_pct=%g)", v.Name(), v.thresholdPct)
	case *Pattern:
		return fmt.Sprintf("%s(columns=%s)", v.Name(), strings.Join(v.Columns(), ","))
	case *Composite:
		parts := make([]string, len(v.strategies))
		for i, sub := range v.strategies {
			parts[i] = Describe(sub)
		}
		return fmt.Sprintf("%s[%s]", v.Name(), strings.Join(parts, ", "))
	default:
		return s.Name()
	}
}
