package sources

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// Database driver names accepted by PostgresConfig.Driver
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// PostgresConfig holds the connection and execution settings of a database source
type PostgresConfig struct {
	Driver           string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	StatementTimeout time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
}

// DSN returns the key/value connection string understood by both drivers
func (c PostgresConfig) DSN() string {
	return c.dsn(c.Password)
}

// MaskedDSN returns the connection string with the password hidden, for logs
func (c PostgresConfig) MaskedDSN() string {
	return c.dsn("***")
}

func (c PostgresConfig) dsn(password string) string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, password, c.Name, sslMode)
}

// Postgres runs queries against a PostgreSQL database inside read-only
// transactions.
type Postgres struct {
	config PostgresConfig
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres returns an unconnected source. A nil logger discards output.
func NewPostgres(config PostgresConfig, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Driver == "" {
		config.Driver = DriverPQ
	}
	return &Postgres{config: config, logger: logger}
}

// NewPostgresWithDB wraps an already open database handle
func NewPostgresWithDB(db *sql.DB, config PostgresConfig, logger *slog.Logger) *Postgres {
	p := NewPostgres(config, logger)
	p.db = db
	return p
}

// Connect opens the database and verifies the connection
func (p *Postgres) Connect(ctx context.Context) error {
	if p.config.Driver != DriverPQ && p.config.Driver != DriverPGX {
		return fmt.Errorf("%w: %w: %s", ErrSource, ErrUnsupportedDriver, p.config.Driver)
	}

	p.logger.Debug(fmt.Sprintf("🔌 Connecting to database (%s): %s", p.config.Driver, p.config.MaskedDSN()))

	db, err := sql.Open(p.config.Driver, p.config.DSN())
	if err != nil {
		return fmt.Errorf("%w: failed to open database connection: %w", ErrSource, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: failed to ping database: %w", ErrSource, err)
	}

	var currentDB string
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&currentDB); err == nil {
		if currentDB != p.config.Name {
			db.Close()
			return fmt.Errorf("%w: %w: got %s, expected %s (check that user %s may connect to it)",
				ErrSource, ErrWrongDatabase, pq.QuoteIdentifier(currentDB), pq.QuoteIdentifier(p.config.Name), p.config.User)
		}
	}

	p.db = db
	p.logger.Debug(fmt.Sprintf("✅ Connected to database %s", currentDB))
	return nil
}

// Close closes the database handle
func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Query renders the query template with params and returns its result set.
// Connection-class failures are retried up to MaxRetries times.
func (p *Postgres) Query(ctx context.Context, query string, params map[string]interface{}) (*dataset.Dataset, error) {
	if p.db == nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, ErrNotConnected)
	}

	rendered, err := RenderQuery(query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn(fmt.Sprintf("⚠️  Query failed with a connection error, retrying (%d/%d): %v",
				attempt, p.config.MaxRetries, lastErr))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrSource, ctx.Err())
			case <-time.After(p.config.RetryDelay):
			}
		}

		d, err := p.query(ctx, rendered)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if !isConnectionError(err) {
			break
		}
	}

	return nil, fmt.Errorf("%w: query failed: %w", ErrSource, lastErr)
}

func (p *Postgres) query(ctx context.Context, query string) (*dataset.Dataset, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if p.config.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", p.config.StatementTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to set statement timeout: %w", err)
		}
	}

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	d, err := scanRows(rows, postgresDialect)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read-only transaction: %w", err)
	}
	return d, nil
}

var postgresDialect = sqlDialect{kindForType: kindForType, convert: convertScanned}

// kindForType maps a PostgreSQL type name to a column kind
func kindForType(dbType string) (dataset.Kind, bool) {
	switch dbType {
	case "INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT",
		"FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION", "NUMERIC", "DECIMAL", "MONEY":
		return dataset.KindNumeric, true
	case "TEXT", "VARCHAR", "BPCHAR", "CHAR", "NAME", "UUID", "CITEXT", "JSON", "JSONB":
		return dataset.KindText, true
	case "BOOL", "BOOLEAN":
		return dataset.KindBool, true
	case "TIMESTAMP", "TIMESTAMPTZ", "DATE":
		return dataset.KindTimestamp, true
	default:
		return dataset.KindNull, false
	}
}

// convertScanned decodes driver values the dataset cannot normalize on its
// own. NUMERIC arrives as text from both drivers; whole values stay integers.
func convertScanned(v interface{}, dbType string) interface{} {
	if dbType != "NUMERIC" && dbType != "DECIMAL" {
		return v
	}
	var text string
	switch val := v.(type) {
	case []byte:
		text = string(val)
	case string:
		text = val
	default:
		return v
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

// isConnectionError checks if an error is due to a closed or broken database connection
func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	// SQLSTATE class 08 is "connection exception"
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "08" {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "bad connection") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "sql: database is closed")
}
