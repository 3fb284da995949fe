package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/airframesio/data-validator/cmd/reporting"
	"github.com/airframesio/data-validator/cmd/validation"
)

// Exit codes of the validate command
const (
	exitPassed    = 0
	exitError     = 1
	exitFailed    = 2
	exitCancelled = 130
)

var (
	checkMetric      string
	checkSourceQuery string
	checkTargetQuery string
	checkParams      map[string]string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run validation checks between a source and a target",
	Long: `Run every configured check: query the source and the target, compare the
common columns with the check's strategy, write the results file and print a
summary. Exits 0 when every check passes, 2 when a check fails, 1 on errors
and 130 when interrupted.`,
	Run: func(_ *cobra.Command, _ []string) {
		if code := runValidate(); code != exitPassed {
			os.Exit(code)
		}
	},
}

func initValidateFlags() {
	flags := validateCmd.Flags()

	flags.String("source-type", "postgres", "source type: postgres, pgx, archive, duckdb")
	flags.String("target-type", "postgres", "target type: postgres, pgx, archive, duckdb")
	flags.Int("batch-size", validation.DefaultBatchSize, "rows decoded per read from archive files")
	flags.Float64("tolerance", validation.DefaultTolerance, "default numeric tolerance")
	flags.Int("workers", 1, "number of checks run concurrently")
	flags.String("results-file", "validation_results.csv", "results path, local or s3://bucket/key; supports {run}, {YYYY}, {MM}, {DD}, {HH}")
	flags.String("results-format", "", "results format: csv, json, jsonl, yaml, parquet (default from extension)")
	flags.String("results-compression", "none", "results compression: zstd, lz4, gzip, none")
	flags.String("strategy", "numeric", "default strategy: numeric, categorical, datetime, null, distribution, pattern")

	flags.StringVar(&checkMetric, "metric", "", "name of an ad-hoc check run in addition to the configured checks")
	flags.StringVar(&checkSourceQuery, "source-query", "", "source query of the ad-hoc check")
	flags.StringVar(&checkTargetQuery, "target-query", "", "target query of the ad-hoc check")
	flags.StringToStringVar(&checkParams, "param", nil, "query parameter of the ad-hoc check (key=value, repeatable)")

	_ = viper.BindPFlag("source.type", flags.Lookup("source-type"))
	_ = viper.BindPFlag("target.type", flags.Lookup("target-type"))
	_ = viper.BindPFlag("validation.batch_size", flags.Lookup("batch-size"))
	_ = viper.BindPFlag("validation.tolerance", flags.Lookup("tolerance"))
	_ = viper.BindPFlag("validation.workers", flags.Lookup("workers"))
	_ = viper.BindPFlag("validation.results_file", flags.Lookup("results-file"))
	_ = viper.BindPFlag("validation.results_format", flags.Lookup("results-format"))
	_ = viper.BindPFlag("validation.results_compression", flags.Lookup("results-compression"))
	_ = viper.BindPFlag("strategy.type", flags.Lookup("strategy"))
}

// adHocCheck returns the check given on the command line, if any
func adHocCheck() (CheckConfig, bool) {
	if checkMetric == "" {
		return CheckConfig{}, false
	}
	params := make(map[string]interface{}, len(checkParams))
	for k, v := range checkParams {
		params[k] = v
	}
	return CheckConfig{
		Metric:      checkMetric,
		SourceQuery: checkSourceQuery,
		TargetQuery: checkTargetQuery,
		Params:      params,
	}, true
}

func runValidate() int {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			os.Exit(exitError)
		}
	}()

	config, err := loadConfig(viper.GetViper())
	if err == nil {
		err = configReadErr
	}
	initLogger(viper.GetBool("debug"), viper.GetString("log_format"))
	if err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		return exitError
	}
	if check, ok := adHocCheck(); ok {
		config.Checks = append(config.Checks, check)
	}

	logger.Info("")
	logger.Info(fmt.Sprintf("🔍 Data Validator v%s", Version))
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	logger.Debug("Validating configuration...")
	if err := config.Validate(); err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		return exitError
	}
	logger.Debug("Configuration validated successfully")

	ctx := signalContext
	if ctx == nil {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	if err := ClaimPIDFile(); err != nil {
		logger.Error(fmt.Sprintf("❌ %s", err.Error()))
		return exitError
	}
	defer func() {
		_ = RemovePIDFile()
	}()

	runInfo := newRunInfo(config)
	_ = WriteRunInfo(runInfo)
	defer func() {
		_ = RemoveRunFile()
	}()

	return validateRun(ctx, config, runInfo, os.Stdout)
}

// validateRun runs the checks, writes the results and prints the summary.
// It returns the process exit code.
func validateRun(ctx context.Context, config *Config, runInfo *RunInfo, out io.Writer) int {
	handler, err := reporting.NewFileHandler(reporting.FileHandlerConfig{
		Path:        config.Validation.ResultsFile,
		Format:      config.Validation.ResultsFormat,
		Compression: config.Validation.ResultsCompression,
		RunID:       runInfo.RunID,
		S3:          config.Validation.ResultsS3,
	}, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("❌ %s: %s", ErrConfiguration, err.Error()))
		return exitError
	}

	logger.Info(fmt.Sprintf("📋 Run %s: %d checks, %s → %s", runInfo.RunID, len(config.Checks), config.Source.describe(), config.Target.describe()))

	runner := NewRunner(config, logger)
	track := func(next checkReporter) checkReporter {
		return newRunTracker(runInfo, next)
	}

	start := time.Now()
	var results []reporting.ValidationResult
	if useProgressDisplay(config) {
		results, err = runWithProgress(ctx, runner, track)
	} else {
		results, err = runner.Run(ctx, track(logReporter{logger: logger}))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			logger.Info("")
			logger.Info("⚠️  Validation cancelled, no results written")
			return exitCancelled
		}
		logger.Error(fmt.Sprintf("❌ Validation failed: %s", err.Error()))
		return exitError
	}

	if err := handler.Handle(ctx, results); err != nil {
		logger.Error(fmt.Sprintf("❌ Failed to write results: %s", err.Error()))
		return exitError
	}

	if err := reporting.TextReport(out, results); err != nil {
		logger.Error(fmt.Sprintf("❌ Failed to print report: %s", err.Error()))
		return exitError
	}
	logger.Debug(fmt.Sprintf("Run finished in %v", time.Since(start).Round(time.Millisecond)))

	if !reporting.AllPassed(results) {
		return exitFailed
	}
	return exitPassed
}
