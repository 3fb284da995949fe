package compressors

import (
	"compress/gzip"
	"fmt"
	"io"
)

const gzipDefaultLevel = 6

type GzipCompressor struct {
	level int
}

// NewGzipCompressor accepts levels 1-9; anything else uses gzip's default
func NewGzipCompressor(level int) *GzipCompressor {
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &GzipCompressor{level: level}
}

func (c *GzipCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	writer, err := gzip.NewWriterLevel(w, c.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	return writer, nil
}

func (c *GzipCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	reader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return reader, nil
}

func (c *GzipCompressor) Extension() string {
	return ".gz"
}
