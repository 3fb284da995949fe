package compressors

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor handles LZ4 frames. Level 0 is the fast mode.
type LZ4Compressor struct {
	level int
}

// NewLZ4Compressor accepts levels 1-9; anything else uses the fast default
func NewLZ4Compressor(level int) *LZ4Compressor {
	return &LZ4Compressor{level: level}
}

func (c *LZ4Compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	writer := lz4.NewWriter(w)
	if c.level >= 1 && c.level <= 9 {
		if err := writer.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(1 << (8 + c.level)))); err != nil {
			return nil, fmt.Errorf("failed to apply lz4 level %d: %w", c.level, err)
		}
	}
	return writer, nil
}

func (c *LZ4Compressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (c *LZ4Compressor) Extension() string {
	return ".lz4"
}
