package validation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// DefaultBatchSize is the fetch batch size handed to data sources
const DefaultBatchSize = 25000

// Summary is the enriched result of validating two datasets. Details is the
// strategy's differences on fail and an empty map on pass.
type Summary struct {
	Status     Status      `json:"status" yaml:"status"`
	Details    Differences `json:"details" yaml:"details"`
	SourceRows int         `json:"source_rows" yaml:"source_rows"`
	TargetRows int         `json:"target_rows" yaml:"target_rows"`
}

// Validate compares the columns the two datasets have in common. Columns
// present on one side only are ignored. Any strategy error is wrapped with
// ErrValidation.
func Validate(expected, actual *dataset.Dataset, strategy Strategy) (*Summary, error) {
	common := dataset.CommonColumns(expected, actual)

	exp, err := expected.Project(common)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	act, err := actual.Project(common)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	outcome, err := strategy.Compare(exp, act)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrValidation, strategy.Name(), err)
	}

	details := outcome.Differences
	if outcome.Passed() {
		details = Differences{}
	}

	return &Summary{
		Status:     outcome.Status,
		Details:    details,
		SourceRows: expected.RowCount(),
		TargetRows: actual.RowCount(),
	}, nil
}

// DataSource executes a query and returns its result set
type DataSource interface {
	Query(ctx context.Context, query string, params map[string]interface{}) (*dataset.Dataset, error)
}

// Validator runs checks between a source of truth and a target
type Validator struct {
	source    DataSource
	target    DataSource
	strategy  Strategy
	batchSize int
	logger    *slog.Logger
}

// Option configures a Validator
type Option func(*Validator)

// WithBatchSize sets the batch size reported to data sources
func WithBatchSize(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.batchSize = n
		}
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// NewValidator pairs two data sources with the strategy used to compare them
func NewValidator(source, target DataSource, strategy Strategy, opts ...Option) *Validator {
	v := &Validator{
		source:    source,
		target:    target,
		strategy:  strategy,
		batchSize: DefaultBatchSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// BatchSize returns the configured batch size
func (v *Validator) BatchSize() int {
	return v.batchSize
}

// Strategy returns the strategy used for every check
func (v *Validator) Strategy() Strategy {
	return v.strategy
}

// ValidateQuery fetches both result sets and validates them. Either fetch
// failing aborts the check before any comparison.
func (v *Validator) ValidateQuery(ctx context.Context, sourceQuery, targetQuery string, params map[string]interface{}) (*Summary, error) {
	start := time.Now()

	v.logger.Debug(fmt.Sprintf("📥 Fetching source result set: %s", sourceQuery))
	expected, err := v.source.Query(ctx, sourceQuery, params)
	if err != nil {
		return nil, fmt.Errorf("%w: source query: %w", ErrValidation, err)
	}

	v.logger.Debug(fmt.Sprintf("📥 Fetching target result set: %s", targetQuery))
	actual, err := v.target.Query(ctx, targetQuery, params)
	if err != nil {
		return nil, fmt.Errorf("%w: target query: %w", ErrValidation, err)
	}

	summary, err := Validate(expected, actual, v.strategy)
	if err != nil {
		return nil, err
	}

	v.logger.Debug(fmt.Sprintf("🔍 %s: %s (%d source rows, %d target rows, %d columns differ) in %v",
		v.strategy.Name(), summary.Status, summary.SourceRows, summary.TargetRows, len(summary.Details),
		time.Since(start).Round(time.Millisecond)))

	return summary, nil
}
