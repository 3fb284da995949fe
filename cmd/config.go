package cmd

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/airframesio/data-validator/cmd/sources"
	"github.com/airframesio/data-validator/cmd/validation"
)

// Static errors for configuration validation
var (
	ErrConfiguration           = errors.New("configuration error")
	ErrSourceTypeInvalid       = errors.New("source type must be one of: postgres, pgx, archive, duckdb")
	ErrDatabaseUserRequired    = errors.New("database user is required")
	ErrDatabaseNameRequired    = errors.New("database name is required")
	ErrDatabasePortInvalid     = errors.New("database port must be between 1 and 65535")
	ErrStatementTimeoutInvalid = errors.New("database statement timeout must be >= 0")
	ErrMaxRetriesInvalid       = errors.New("database max retries must be >= 0")
	ErrRetryDelayInvalid       = errors.New("database retry delay must be >= 0")
	ErrArchiveLocationRequired = errors.New("archive root or S3 bucket is required")
	ErrDuckDBPathRequired      = errors.New("duckdb database path is required")
	ErrS3RegionInvalid         = errors.New("S3 region contains invalid characters or is too long")
	ErrArchiveFormatInvalid    = errors.New("archive format must be one of: jsonl, csv, parquet")
	ErrCompressionInvalid      = errors.New("compression must be one of: zstd, lz4, gzip, none")
	ErrBatchSizeMinimum        = errors.New("batch size must be at least 1")
	ErrBatchSizeMaximum        = errors.New("batch size must not exceed 1000000")
	ErrToleranceInvalid        = errors.New("tolerance must be >= 0")
	ErrWorkersMinimum          = errors.New("workers must be at least 1")
	ErrWorkersMaximum          = errors.New("workers must not exceed 1000")
	ErrResultsFileRequired     = errors.New("results file is required")
	ErrResultsFormatInvalid    = errors.New("results format must be one of: csv, json, jsonl, yaml, parquet")
	ErrChecksRequired          = errors.New("at least one check is required")
	ErrMetricRequired          = errors.New("check metric is required")
	ErrMetricInvalid           = errors.New("check metric is invalid: must start with a letter or underscore, and contain only letters, numbers, dots, dashes and underscores")
	ErrMetricDuplicate         = errors.New("check metric is duplicated")
	ErrQueryRequired           = errors.New("source and target queries are required")
	ErrStrategyInvalid         = errors.New("invalid strategy")
)

const (
	regionAuto = "auto"

	sourcePostgres = "postgres"
	sourcePGX      = "pgx"
	sourceArchive  = "archive"
	sourceDuckDB   = "duckdb"
)

type Config struct {
	Debug      bool                      `mapstructure:"debug"`
	LogFormat  string                    `mapstructure:"log_format"`
	Source     SourceConfig              `mapstructure:"source"`
	Target     SourceConfig              `mapstructure:"target"`
	Validation ValidationConfig          `mapstructure:"validation"`
	Strategy   validation.StrategyConfig `mapstructure:"strategy"`
	Checks     []CheckConfig             `mapstructure:"checks"`
}

// SourceConfig describes one side of the comparison
type SourceConfig struct {
	Type     string         `mapstructure:"type"`
	Database DatabaseConfig `mapstructure:"db"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	DuckDB   DuckDBConfig   `mapstructure:"duckdb"`
}

type DatabaseConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	Name             string `mapstructure:"name"`
	SSLMode          string `mapstructure:"sslmode"`
	StatementTimeout int    `mapstructure:"statement_timeout"` // seconds, 0 = no timeout
	MaxRetries       int    `mapstructure:"max_retries"`
	RetryDelay       int    `mapstructure:"retry_delay"` // seconds
}

type ArchiveConfig struct {
	Root        string           `mapstructure:"root"`
	S3          sources.S3Config `mapstructure:"s3"`
	Format      string           `mapstructure:"format"`
	Compression string           `mapstructure:"compression"`
}

// DuckDBConfig locates a DuckDB file; Path may be s3://bucket/key, read with
// the S3 settings and copied to DownloadPath.
type DuckDBConfig struct {
	Path         string           `mapstructure:"path"`
	DownloadPath string           `mapstructure:"download_path"`
	S3           sources.S3Config `mapstructure:"s3"`
}

type ValidationConfig struct {
	BatchSize          int     `mapstructure:"batch_size"`
	Tolerance          float64 `mapstructure:"tolerance"`
	ResultsFile        string  `mapstructure:"results_file"`
	ResultsFormat      string  `mapstructure:"results_format"`
	ResultsCompression string  `mapstructure:"results_compression"`
	Workers            int     `mapstructure:"workers"`

	// ResultsS3 is used when ResultsFile is an s3:// URL
	ResultsS3 sources.S3Config `mapstructure:"results_s3"`
}

// CheckConfig is one named comparison. Strategy overrides the run's
// default strategy when set.
type CheckConfig struct {
	Metric      string                     `mapstructure:"metric"`
	SourceQuery string                     `mapstructure:"source_query"`
	TargetQuery string                     `mapstructure:"target_query"`
	Params      map[string]interface{}     `mapstructure:"params"`
	Strategy    *validation.StrategyConfig `mapstructure:"strategy"`
}

// setDefaults registers every key viper should know about, which also makes
// them reachable through VALIDATOR_* environment variables.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "text")

	for _, side := range []string{"source", "target"} {
		v.SetDefault(side+".type", sourcePostgres)
		v.SetDefault(side+".db.host", "localhost")
		v.SetDefault(side+".db.port", 5432)
		v.SetDefault(side+".db.user", "")
		v.SetDefault(side+".db.password", "")
		v.SetDefault(side+".db.name", "")
		v.SetDefault(side+".db.sslmode", "disable")
		v.SetDefault(side+".db.statement_timeout", 300)
		v.SetDefault(side+".db.max_retries", 3)
		v.SetDefault(side+".db.retry_delay", 5)
		v.SetDefault(side+".archive.root", "")
		v.SetDefault(side+".archive.s3.endpoint", "")
		v.SetDefault(side+".archive.s3.bucket", "")
		v.SetDefault(side+".archive.s3.access_key", "")
		v.SetDefault(side+".archive.s3.secret_key", "")
		v.SetDefault(side+".archive.s3.region", regionAuto)
		v.SetDefault(side+".archive.format", "")
		v.SetDefault(side+".archive.compression", "")
		v.SetDefault(side+".duckdb.path", "")
		v.SetDefault(side+".duckdb.download_path", "")
		v.SetDefault(side+".duckdb.s3.endpoint", "")
		v.SetDefault(side+".duckdb.s3.access_key", "")
		v.SetDefault(side+".duckdb.s3.secret_key", "")
		v.SetDefault(side+".duckdb.s3.region", regionAuto)
	}

	v.SetDefault("validation.batch_size", validation.DefaultBatchSize)
	v.SetDefault("validation.tolerance", validation.DefaultTolerance)
	v.SetDefault("validation.results_file", "validation_results.csv")
	v.SetDefault("validation.results_format", "")
	v.SetDefault("validation.results_compression", "none")
	v.SetDefault("validation.workers", 1)
	v.SetDefault("validation.results_s3.endpoint", "")
	v.SetDefault("validation.results_s3.access_key", "")
	v.SetDefault("validation.results_s3.secret_key", "")
	v.SetDefault("validation.results_s3.region", regionAuto)
	v.SetDefault("strategy.type", "numeric")
}

// loadConfig decodes the merged flags, environment and config file
func loadConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("%w: failed to decode configuration: %w", ErrConfiguration, err)
	}
	return &config, nil
}

// StrategyFor returns the strategy configuration a check runs with, with the
// run's default tolerance applied to numeric strategies.
func (c *Config) StrategyFor(check CheckConfig) validation.StrategyConfig {
	strategy := c.Strategy
	if check.Strategy != nil {
		strategy = *check.Strategy
	}
	return strategy.WithDefaultTolerance(c.Validation.Tolerance)
}

// postgresConfig converts database settings for the postgres source
func (s SourceConfig) postgresConfig() sources.PostgresConfig {
	driver := sources.DriverPQ
	if s.Type == sourcePGX {
		driver = sources.DriverPGX
	}
	return sources.PostgresConfig{
		Driver:           driver,
		Host:             s.Database.Host,
		Port:             s.Database.Port,
		User:             s.Database.User,
		Password:         s.Database.Password,
		Name:             s.Database.Name,
		SSLMode:          s.Database.SSLMode,
		StatementTimeout: time.Duration(s.Database.StatementTimeout) * time.Second,
		MaxRetries:       s.Database.MaxRetries,
		RetryDelay:       time.Duration(s.Database.RetryDelay) * time.Second,
	}
}

// describe names the source for log lines
func (s SourceConfig) describe() string {
	switch s.Type {
	case sourceArchive:
		if s.Archive.S3.Bucket != "" {
			return fmt.Sprintf("archive s3://%s", s.Archive.S3.Bucket)
		}
		return fmt.Sprintf("archive %s", s.Archive.Root)
	case sourceDuckDB:
		return fmt.Sprintf("duckdb %s", s.DuckDB.Path)
	default:
		return fmt.Sprintf("%s %s@%s:%d/%s", s.Type, s.Database.User, s.Database.Host, s.Database.Port, s.Database.Name)
	}
}

// validMetricName keeps metric names safe to use in result paths
var validMetricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)

// isValidRegion validates that an S3 region is reasonable
func isValidRegion(region string) bool {
	if region == "" || len(region) > 50 {
		return false
	}
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, region)
	return matched
}

// isValidArchiveFormat validates the format of archived data files
func isValidArchiveFormat(format string) bool {
	validFormats := map[string]bool{
		"jsonl":   true,
		"csv":     true,
		"parquet": true,
	}
	return validFormats[format]
}

// isValidResultsFormat validates the results file format
func isValidResultsFormat(format string) bool {
	validFormats := map[string]bool{
		"csv":     true,
		"json":    true,
		"jsonl":   true,
		"yaml":    true,
		"parquet": true,
	}
	return validFormats[format]
}

// isValidCompression validates the compression type
func isValidCompression(compression string) bool {
	validCompressions := map[string]bool{
		"zstd": true,
		"lz4":  true,
		"gzip": true,
		"none": true,
	}
	return validCompressions[compression]
}

// Validate checks the whole configuration. Every error wraps ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.Source.validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Target.validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}

	v := c.Validation
	if v.BatchSize < 1 {
		return fmt.Errorf("%w, got %d", ErrBatchSizeMinimum, v.BatchSize)
	}
	if v.BatchSize > 1000000 {
		return fmt.Errorf("%w, got %d", ErrBatchSizeMaximum, v.BatchSize)
	}
	if v.Tolerance < 0 {
		return fmt.Errorf("%w, got %g", ErrToleranceInvalid, v.Tolerance)
	}
	if v.Workers < 1 {
		return ErrWorkersMinimum
	}
	if v.Workers > 1000 {
		return fmt.Errorf("%w, got %d", ErrWorkersMaximum, v.Workers)
	}
	if v.ResultsFile == "" {
		return ErrResultsFileRequired
	}
	if v.ResultsFormat != "" && !isValidResultsFormat(strings.ToLower(v.ResultsFormat)) {
		return fmt.Errorf("%w: '%s'", ErrResultsFormatInvalid, v.ResultsFormat)
	}
	if v.ResultsCompression != "" && !isValidCompression(v.ResultsCompression) {
		return fmt.Errorf("%w: '%s'", ErrCompressionInvalid, v.ResultsCompression)
	}

	if len(c.Checks) == 0 {
		return ErrChecksRequired
	}
	seen := make(map[string]bool, len(c.Checks))
	for i, check := range c.Checks {
		if check.Metric == "" {
			return fmt.Errorf("check %d: %w", i, ErrMetricRequired)
		}
		if !validMetricName.MatchString(check.Metric) {
			return fmt.Errorf("%w: '%s'", ErrMetricInvalid, check.Metric)
		}
		if seen[check.Metric] {
			return fmt.Errorf("%w: '%s'", ErrMetricDuplicate, check.Metric)
		}
		seen[check.Metric] = true

		if strings.TrimSpace(check.SourceQuery) == "" || strings.TrimSpace(check.TargetQuery) == "" {
			return fmt.Errorf("check %s: %w", check.Metric, ErrQueryRequired)
		}
		if _, err := validation.FromConfig(c.StrategyFor(check)); err != nil {
			return fmt.Errorf("check %s: %w: %w", check.Metric, ErrStrategyInvalid, err)
		}
	}

	return nil
}

func (s SourceConfig) validate() error {
	switch s.Type {
	case sourcePostgres, sourcePGX:
		return s.Database.validate()
	case sourceArchive:
		return s.Archive.validate()
	case sourceDuckDB:
		return s.DuckDB.validate()
	default:
		return fmt.Errorf("%w: '%s'", ErrSourceTypeInvalid, s.Type)
	}
}

func (d DatabaseConfig) validate() error {
	if d.User == "" {
		return ErrDatabaseUserRequired
	}
	if d.Name == "" {
		return ErrDatabaseNameRequired
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("%w, got %d", ErrDatabasePortInvalid, d.Port)
	}
	if d.StatementTimeout < 0 {
		return fmt.Errorf("%w, got %d", ErrStatementTimeoutInvalid, d.StatementTimeout)
	}
	if d.MaxRetries < 0 {
		return fmt.Errorf("%w, got %d", ErrMaxRetriesInvalid, d.MaxRetries)
	}
	if d.RetryDelay < 0 {
		return fmt.Errorf("%w, got %d", ErrRetryDelayInvalid, d.RetryDelay)
	}
	return nil
}

func (a ArchiveConfig) validate() error {
	if a.Root == "" && a.S3.Bucket == "" {
		return ErrArchiveLocationRequired
	}
	if a.S3.Bucket != "" && a.S3.Region != "" && a.S3.Region != regionAuto && !isValidRegion(a.S3.Region) {
		return fmt.Errorf("%w: %s", ErrS3RegionInvalid, a.S3.Region)
	}
	if a.Format != "" && !isValidArchiveFormat(a.Format) {
		return fmt.Errorf("%w: '%s'", ErrArchiveFormatInvalid, a.Format)
	}
	if a.Compression != "" && !isValidCompression(a.Compression) {
		return fmt.Errorf("%w: '%s'", ErrCompressionInvalid, a.Compression)
	}
	return nil
}

func (d DuckDBConfig) validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return ErrDuckDBPathRequired
	}
	if strings.HasPrefix(d.Path, "s3://") && d.S3.Region != "" && d.S3.Region != regionAuto && !isValidRegion(d.S3.Region) {
		return fmt.Errorf("%w: %s", ErrS3RegionInvalid, d.S3.Region)
	}
	return nil
}
