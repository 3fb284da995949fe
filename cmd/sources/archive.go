package sources

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/airframesio/data-validator/cmd/compressors"
	"github.com/airframesio/data-validator/cmd/dataset"
	"github.com/airframesio/data-validator/cmd/formatters"
)

// ArchiveConfig selects where exported data files live and how to decode them
type ArchiveConfig struct {
	// Root is a local directory; used when S3.Bucket is empty
	Root string
	S3   S3Config

	// Format and Compression override detection from the file extension
	Format      string
	Compression string

	// BatchSize is the number of rows decoded per read
	BatchSize int
}

// objectStore lists and opens data files by slash-separated key
type objectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Archive reads result sets from exported data files. The query is a key
// template: a key ending in "/" names a prefix whose files are read in key
// order and concatenated.
type Archive struct {
	config ArchiveConfig
	store  objectStore
	logger *slog.Logger
}

// NewArchive returns an unconnected archive source. A nil logger discards output.
func NewArchive(config ArchiveConfig, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 25000
	}
	return &Archive{config: config, logger: logger}
}

// Connect prepares the object store
func (a *Archive) Connect(_ context.Context) error {
	if a.config.S3.Bucket == "" {
		info, err := os.Stat(a.config.Root)
		if err != nil {
			return fmt.Errorf("%w: archive root: %w", ErrSource, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: archive root %s is not a directory", ErrSource, a.config.Root)
		}
		a.store = &localStore{root: a.config.Root}
		a.logger.Debug(fmt.Sprintf("📁 Reading archive from %s", a.config.Root))
		return nil
	}

	sess, err := NewS3Session(a.config.S3)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSource, err)
	}
	a.store = &s3Store{
		client:     s3.New(sess),
		downloader: s3manager.NewDownloader(sess),
		bucket:     a.config.S3.Bucket,
	}
	a.logger.Debug(fmt.Sprintf("☁️  Reading archive from s3://%s", a.config.S3.Bucket))
	return nil
}

func (a *Archive) Close() error {
	return nil
}

// Query reads every file the rendered key names into one dataset
func (a *Archive) Query(ctx context.Context, query string, params map[string]interface{}) (*dataset.Dataset, error) {
	if a.store == nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, ErrNotConnected)
	}

	key, err := RenderQuery(query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSource, err)
	}
	key = strings.TrimPrefix(key, "/")

	keys := []string{key}
	if key == "" || strings.HasSuffix(key, "/") {
		keys, err = a.listDataFiles(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSource, err)
		}
	}

	var (
		columns []string
		seen    = map[string]bool{}
		rows    []map[string]interface{}
	)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSource, err)
		}

		fileRows, fileColumns, err := a.readFile(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSource, k, err)
		}
		for _, col := range fileColumns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
		rows = append(rows, fileRows...)
		a.logger.Debug(fmt.Sprintf("📄 Read %d rows from %s", len(fileRows), k))
	}

	return dataset.FromRows(columns, rows), nil
}

// listDataFiles returns the keys under prefix with a recognizable format, sorted
func (a *Archive) listDataFiles(ctx context.Context, prefix string) ([]string, error) {
	all, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, key := range all {
		if strings.HasSuffix(key, "/") {
			continue
		}
		if _, _, err := detectFormatAndCompression(path.Base(key), a.config.Format, a.config.Compression); err != nil {
			a.logger.Debug(fmt.Sprintf("Skipping %s: %v", key, err))
			continue
		}
		keys = append(keys, key)
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("%w under %q", ErrNoObjects, prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// readFile decodes one data file in chunks of the configured batch size
func (a *Archive) readFile(ctx context.Context, key string) ([]map[string]interface{}, []string, error) {
	format, compression, err := detectFormatAndCompression(path.Base(key), a.config.Format, a.config.Compression)
	if err != nil {
		return nil, nil, err
	}

	compressor, err := compressors.GetCompressor(compression)
	if err != nil {
		return nil, nil, err
	}

	raw, err := a.store.Open(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	defer raw.Close()

	decompressed, err := compressor.NewReader(raw)
	if err != nil {
		return nil, nil, err
	}

	reader, err := formatters.NewReader(format, decompressed)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	var rows []map[string]interface{}
	for {
		chunk, err := reader.ReadChunk(a.config.BatchSize)
		if err != nil {
			return nil, nil, err
		}
		if len(chunk) == 0 {
			break
		}
		rows = append(rows, chunk...)
	}

	return rows, reader.Columns(), nil
}

// detectFormatAndCompression detects format and compression from filename
func detectFormatAndCompression(filename string, overrideFormat, overrideCompression string) (format string, compression string, err error) {
	if overrideFormat != "" {
		format = overrideFormat
	} else {
		format, err = formatters.Detect(filename)
		if err != nil {
			return "", "", err
		}
	}

	if overrideCompression != "" {
		compression = overrideCompression
	} else {
		compression = compressors.Detect(filename)
	}

	return format, compression, nil
}

// localStore serves keys relative to a directory
type localStore struct {
	root string
}

func (s *localStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}
	return keys, nil
}

func (s *localStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	return f, nil
}

// s3Store serves keys from a bucket, downloading each object to a temp file
type s3Store struct {
	client     *s3.S3
	downloader *s3manager.Downloader
	bucket     string
}

func (s *s3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuationToken *string

	for {
		result, err := s.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 objects: %w", err)
		}

		for _, obj := range result.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}

		if !aws.BoolValue(result.IsTruncated) {
			break
		}
		continuationToken = result.NextContinuationToken
	}

	return keys, nil
}

func (s *s3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	tempFile, err := os.CreateTemp("", "data-validator-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = s.downloader.DownloadWithContext(ctx, tempFile, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("failed to rewind temp file: %w", err)
	}

	return &tempFileReader{File: tempFile}, nil
}

// tempFileReader removes its file on Close
type tempFileReader struct {
	*os.File
}

func (r *tempFileReader) Close() error {
	err := r.File.Close()
	if rmErr := os.Remove(r.File.Name()); err == nil {
		err = rmErr
	}
	return err
}
