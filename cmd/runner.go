package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/airframesio/data-validator/cmd/reporting"
	"github.com/airframesio/data-validator/cmd/sources"
	"github.com/airframesio/data-validator/cmd/validation"
)

// dataSource is a validation.DataSource with a connection lifecycle
type dataSource interface {
	validation.DataSource
	Connect(ctx context.Context) error
	Close() error
}

// checkReporter receives progress events. Calls may come from several
// workers at once.
type checkReporter interface {
	CheckStarted(index int, metric string)
	CheckFinished(index int, result reporting.ValidationResult)
}

// logReporter reports progress as log lines
type logReporter struct {
	logger *slog.Logger
}

func (r logReporter) CheckStarted(_ int, metric string) {
	r.logger.Info(fmt.Sprintf("🔎 Running check %s", metric))
}

func (r logReporter) CheckFinished(_ int, result reporting.ValidationResult) {
	if result.Passed() {
		r.logger.Info(fmt.Sprintf("✅ %s passed (%v)", result.Metric, result.Duration.Round(time.Millisecond)))
		return
	}
	r.logger.Info(fmt.Sprintf("❌ %s failed: %d columns differ (%v)", result.Metric, len(result.Details), result.Duration.Round(time.Millisecond)))
}

// newDataSource builds the data source for one side of the comparison
func newDataSource(config SourceConfig, batchSize int, logger *slog.Logger) dataSource {
	switch config.Type {
	case sourceArchive:
		return sources.NewArchive(sources.ArchiveConfig{
			Root:        config.Archive.Root,
			S3:          config.Archive.S3,
			Format:      config.Archive.Format,
			Compression: config.Archive.Compression,
			BatchSize:   batchSize,
		}, logger)
	case sourceDuckDB:
		return sources.NewDuckDB(sources.DuckDBConfig{
			Path:         config.DuckDB.Path,
			DownloadPath: config.DuckDB.DownloadPath,
			S3:           config.DuckDB.S3,
		}, logger)
	default:
		return sources.NewPostgres(config.postgresConfig(), logger)
	}
}

// Runner executes the configured checks against a source and a target
type Runner struct {
	config *Config
	logger *slog.Logger

	// newSource is replaceable in tests
	newSource func(config SourceConfig) dataSource
}

// NewRunner prepares a run of every configured check
func NewRunner(config *Config, logger *slog.Logger) *Runner {
	r := &Runner{config: config, logger: logger}
	r.newSource = func(sc SourceConfig) dataSource {
		return newDataSource(sc, config.Validation.BatchSize, logger)
	}
	return r
}

// Run connects both sides and runs every check, up to the configured number
// of workers at a time. Results keep the order of the configured checks. The
// first error cancels the remaining checks and no results are returned.
func (r *Runner) Run(ctx context.Context, reporter checkReporter) ([]reporting.ValidationResult, error) {
	checks := r.config.Checks

	strategies := make([]validation.Strategy, len(checks))
	for i, check := range checks {
		strategy, err := validation.FromConfig(r.config.StrategyFor(check))
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", check.Metric, err)
		}
		strategies[i] = strategy
		r.logger.Debug(fmt.Sprintf("📐 %s uses %s", check.Metric, validation.Describe(strategy)))
	}

	source := r.newSource(r.config.Source)
	target := r.newSource(r.config.Target)
	defer source.Close()
	defer target.Close()

	connect, connectCtx := errgroup.WithContext(ctx)
	connect.Go(func() error {
		if err := source.Connect(connectCtx); err != nil {
			return fmt.Errorf("source: %w", err)
		}
		return nil
	})
	connect.Go(func() error {
		if err := target.Connect(connectCtx); err != nil {
			return fmt.Errorf("target: %w", err)
		}
		return nil
	})
	if err := connect.Wait(); err != nil {
		return nil, err
	}
	r.logger.Debug(fmt.Sprintf("✅ Connected to %s and %s", r.config.Source.describe(), r.config.Target.describe()))

	results := make([]reporting.ValidationResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.config.Validation.Workers))

	for i, check := range checks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reporter.CheckStarted(i, check.Metric)

			start := time.Now()
			validator := validation.NewValidator(source, target, strategies[i],
				validation.WithBatchSize(r.config.Validation.BatchSize),
				validation.WithLogger(r.logger))

			summary, err := validator.ValidateQuery(gctx, check.SourceQuery, check.TargetQuery, check.Params)
			if err != nil {
				return fmt.Errorf("check %s: %w", check.Metric, err)
			}

			result := reporting.NewResult(check.Metric, summary)
			result.Duration = time.Since(start)
			results[i] = result
			reporter.CheckFinished(i, result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return results, nil
}
