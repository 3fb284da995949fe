package sources

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"

	"github.com/airframesio/data-validator/cmd/dataset"
)

// DuckDBConfig locates a DuckDB database file
type DuckDBConfig struct {
	// Path is a local file or s3://bucket/key
	Path string
	// DownloadPath is the directory an S3 database is copied to. Empty means
	// a temporary directory removed on Close.
	DownloadPath string
	S3           S3Config
}

// DuckDB runs queries against a DuckDB database file opened read-only
type DuckDB struct {
	config  DuckDBConfig
	db      *sql.DB
	tempDir string
	logger  *slog.Logger
}

// NewDuckDB returns an unconnected source. A nil logger discards output.
func NewDuckDB(config DuckDBConfig, logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DuckDB{config: config, logger: logger}
}

// Connect opens the database file, fetching it from S3 first when needed
func (d *DuckDB) Connect(ctx context.Context) error {
	file := d.config.Path
	if bucket, key, ok := parseS3Path(file); ok {
		local, err := d.download(ctx, bucket, key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSource, err)
		}
		file = local
	}

	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("%w: duckdb database: %w", ErrSource, err)
	}

	d.logger.Debug(fmt.Sprintf("🦆 Opening DuckDB database %s", file))
	db, err := sql.Open("duckdb", file+"?access_mode=read_only")
	if err != nil {
		return fmt.Errorf("%w: failed to open duckdb database: %w", ErrSource, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: failed to open duckdb database: %w", ErrSource, err)
	}

	d.db = db
	return nil
}

func (d *DuckDB) download(ctx context.Context, bucket, key string) (string, error) {
	cfg := d.config.S3
	cfg.Bucket = bucket
	sess, err := NewS3Session(cfg)
	if err != nil {
		return "", err
	}

	dir := d.config.DownloadPath
	if dir == "" {
		dir, err = os.MkdirTemp("", "data-validator-duckdb-")
		if err != nil {
			return "", fmt.Errorf("failed to create download directory: %w", err)
		}
		d.tempDir = dir
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	local := filepath.Join(dir, path.Base(key))
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", local, err)
	}
	defer f.Close()

	d.logger.Debug(fmt.Sprintf("☁️  Downloading s3://%s/%s to %s", bucket, key, local))
	n, err := s3manager.NewDownloader(sess).DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	d.logger.Debug(fmt.Sprintf("✅ Downloaded %d bytes", n))
	return local, nil
}

// Close closes the database and removes any temporary download
func (d *DuckDB) Close() error {
	var err error
	if d.db != nil {
		err = d.db.Close()
	}
	if d.tempDir != "" {
		if rmErr := os.RemoveAll(d.tempDir); rmErr != nil && err == nil {
			err = rmErr
		}
		d.tempDir = ""
	}
	return err
}

// Query renders the query template with params and returns its result set
func (d *DuckDB) Query(ctx context.Context, query string, params map[string]interface{}) (*dataset.Dataset, error) {
	if d.db == nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, ErrNotConnected)
	}

	rendered, err := RenderQuery(query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}

	rows, err := d.db.QueryContext(ctx, rendered)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %w", ErrSource, err)
	}
	defer rows.Close()

	ds, err := scanRows(rows, duckdbDialect)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %w", ErrSource, err)
	}
	return ds, nil
}

var duckdbDialect = sqlDialect{kindForType: duckdbKindForType, convert: convertDuckDB}

// duckdbKindForType maps a DuckDB type name to a column kind. Parameterised
// types such as DECIMAL(18,2) match on their prefix.
func duckdbKindForType(dbType string) (dataset.Kind, bool) {
	switch {
	case strings.HasPrefix(dbType, "DECIMAL"), strings.HasPrefix(dbType, "NUMERIC"):
		return dataset.KindNumeric, true
	case strings.HasPrefix(dbType, "TIMESTAMP"), dbType == "DATE":
		return dataset.KindTimestamp, true
	case strings.HasPrefix(dbType, "ENUM"):
		return dataset.KindText, true
	}

	switch dbType {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"FLOAT", "DOUBLE", "REAL":
		return dataset.KindNumeric, true
	case "VARCHAR", "UUID", "JSON":
		return dataset.KindText, true
	case "BOOLEAN":
		return dataset.KindBool, true
	default:
		return dataset.KindNull, false
	}
}

// convertDuckDB decodes DECIMAL, HUGEINT and UUID values
func convertDuckDB(v interface{}, dbType string) interface{} {
	switch val := v.(type) {
	case duckdb.Decimal:
		return decimalValue(val.Value, val.Scale)
	case *big.Int:
		if val == nil {
			return nil
		}
		return bigIntValue(val)
	case []byte:
		if dbType == "UUID" && len(val) == 16 {
			if id, err := uuid.FromBytes(val); err == nil {
				return id.String()
			}
		}
	case fmt.Stringer:
		if dbType == "UUID" {
			return val.String()
		}
	}
	return v
}

// decimalValue returns unscaled / 10^scale, as int64 when it is whole and fits
func decimalValue(unscaled *big.Int, scale uint8) interface{} {
	if unscaled == nil {
		return nil
	}
	denominator := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	r := new(big.Rat).SetFrac(unscaled, denominator)
	if r.IsInt() {
		return bigIntValue(r.Num())
	}
	f, _ := r.Float64()
	return f
}

func bigIntValue(i *big.Int) interface{} {
	if i.IsInt64() {
		return i.Int64()
	}
	f, _ := new(big.Float).SetInt(i).Float64()
	return f
}

// parseS3Path splits s3://bucket/key
func parseS3Path(p string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(p, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
