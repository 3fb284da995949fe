// Package compressors wraps the stream codecs used for archived data files
// and results files.
package compressors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedCompression is returned when an unsupported compression type is requested
var ErrUnsupportedCompression = errors.New("unsupported compression type")

// Compressor is a stream codec
type Compressor interface {
	// NewWriter returns a writer compressing into w. Close flushes the
	// final frame but leaves w open.
	NewWriter(w io.Writer) (io.WriteCloser, error)

	// NewReader wraps r with a decompressing reader
	NewReader(r io.Reader) (io.ReadCloser, error)

	// Extension is the filename suffix, empty for none
	Extension() string
}

// codec registers a compression name with its suffix and constructor
type codec struct {
	name      string
	extension string
	build     func() Compressor
}

var codecs = []codec{
	{name: "zstd", extension: ".zst", build: func() Compressor { return NewZstdCompressor(zstdDefaultLevel) }},
	{name: "lz4", extension: ".lz4", build: func() Compressor { return NewLZ4Compressor(0) }},
	{name: "gzip", extension: ".gz", build: func() Compressor { return NewGzipCompressor(gzipDefaultLevel) }},
}

// GetCompressor returns the codec for a compression name. "" and "none" pass
// data through.
func GetCompressor(compression string) (Compressor, error) {
	if compression == "" || compression == "none" {
		return NoneCompressor{}, nil
	}
	for _, c := range codecs {
		if c.name == compression {
			return c.build(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, compression)
}

// Compress runs data through c in one go
func Compress(c Compressor, data []byte) ([]byte, error) {
	var buffer bytes.Buffer
	writer, err := c.NewWriter(&buffer)
	if err != nil {
		return nil, err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to compress data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush compressed data: %w", err)
	}
	return buffer.Bytes(), nil
}

// Detect returns the compression implied by a filename's extension, or "none"
func Detect(filename string) string {
	lower := strings.ToLower(filename)
	for _, c := range codecs {
		if strings.HasSuffix(lower, c.extension) {
			return c.name
		}
	}
	return "none"
}

// TrimExtension removes a trailing compression extension from filename
func TrimExtension(filename string) string {
	lower := strings.ToLower(filename)
	for _, c := range codecs {
		if strings.HasSuffix(lower, c.extension) {
			return filename[:len(filename)-len(c.extension)]
		}
	}
	return filename
}
