package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/airframesio/data-validator/cmd/compressors"
	"github.com/airframesio/data-validator/cmd/formatters"
	"github.com/airframesio/data-validator/cmd/sources"
)

// ErrInvalidDestination is returned for an unusable results path
var ErrInvalidDestination = errors.New("invalid results destination")

// Handler persists the results of a run
type Handler interface {
	Handle(ctx context.Context, results []ValidationResult) error
}

// FileHandlerConfig configures where and how results are written
type FileHandlerConfig struct {
	// Path is a local path or s3://bucket/key, optionally templated
	Path        string
	Format      string
	Compression string
	RunID       string
	S3          sources.S3Config
}

// FileHandler renders results with a formatter and writes them to a local
// file or an S3 object.
type FileHandler struct {
	formatter   formatters.Formatter
	format      string
	compressor  compressors.Compressor
	compression string
	template    *PathTemplate
	runID       string
	s3Config    sources.S3Config
	uploader    *s3manager.Uploader
	logger      *slog.Logger
	now         func() time.Time
}

// NewFileHandler validates the configuration. The format defaults to the
// path's extension.
func NewFileHandler(config FileHandlerConfig, logger *slog.Logger) (*FileHandler, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.Path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidDestination)
	}
	if strings.HasPrefix(config.Path, "s3://") {
		if _, _, ok := parseS3URL(config.Path); !ok {
			return nil, fmt.Errorf("%w: expected s3://bucket/key, got %s", ErrInvalidDestination, config.Path)
		}
	}

	format := config.Format
	if format == "" {
		detected, err := formatters.Detect(config.Path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	compression := config.Compression
	if compression == "" {
		compression = "none"
	}

	formatter, err := formatters.GetFormatterWithCompression(format, compression)
	if err != nil {
		return nil, err
	}

	// parquet compresses its pages itself
	if formatters.UsesInternalCompression(format) {
		compression = "none"
	}
	compressor, err := compressors.GetCompressor(compression)
	if err != nil {
		return nil, err
	}

	return &FileHandler{
		formatter:   formatter,
		format:      format,
		compressor:  compressor,
		compression: compression,
		template:    NewPathTemplate(config.Path),
		runID:       config.RunID,
		s3Config:    config.S3,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Handle renders results and writes them to the configured destination
func (h *FileHandler) Handle(ctx context.Context, results []ValidationResult) error {
	data, err := h.Render(results)
	if err != nil {
		return err
	}

	destination := h.Destination()
	if bucket, key, ok := parseS3URL(destination); ok {
		return h.upload(ctx, bucket, key, data)
	}
	return h.writeLocal(destination, data)
}

// Render formats and compresses results
func (h *FileHandler) Render(results []ValidationResult) ([]byte, error) {
	columns := fullColumns
	if h.format == formatters.FormatCSV {
		columns = csvColumns
	}

	rows := make([]map[string]interface{}, len(results))
	for i, r := range results {
		rows[i] = r.row()
	}

	data, err := h.formatter.Format(columns, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to format results as %s: %w", h.format, err)
	}

	compressed, err := compressors.Compress(h.compressor, data)
	if err != nil {
		return nil, fmt.Errorf("failed to compress results with %s: %w", h.compression, err)
	}
	return compressed, nil
}

// Destination returns the rendered results path, with the compression
// extension appended when the template lacks it.
func (h *FileHandler) Destination() string {
	destination := h.template.Generate(h.runID, h.now().UTC())
	if ext := h.compressor.Extension(); ext != "" && !strings.HasSuffix(destination, ext) {
		destination += ext
	}
	return destination
}

func (h *FileHandler) writeLocal(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move results file into place: %w", err)
	}

	h.logger.Info(fmt.Sprintf("💾 Wrote %d results bytes to %s", len(data), path))
	return nil
}

func (h *FileHandler) upload(ctx context.Context, bucket, key string, data []byte) error {
	if h.uploader == nil {
		sess, err := sources.NewS3Session(h.s3Config)
		if err != nil {
			return err
		}
		h.uploader = s3manager.NewUploader(sess)
	}

	h.logger.Debug(fmt.Sprintf("☁️  Uploading to s3://%s/%s (size: %d bytes)", bucket, key, len(data)))

	_, err := h.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(h.formatter.MIMEType()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload results to s3://%s/%s: %w", bucket, key, err)
	}

	h.logger.Info(fmt.Sprintf("☁️  Uploaded results to s3://%s/%s", bucket, key))
	return nil
}

// parseS3URL splits s3://bucket/key
func parseS3URL(destination string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(destination, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}
