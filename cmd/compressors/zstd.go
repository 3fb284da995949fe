package compressors

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const zstdDefaultLevel = 3

// ZstdCompressor handles Zstandard frames
type ZstdCompressor struct {
	level zstd.EncoderLevel
}

// NewZstdCompressor maps levels 1-9 onto the encoder's speed presets
func NewZstdCompressor(level int) *ZstdCompressor {
	var encoderLevel zstd.EncoderLevel
	switch {
	case level <= 0:
		encoderLevel = zstd.SpeedFastest
	case level <= 3:
		encoderLevel = zstd.SpeedDefault
	case level <= 7:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedBestCompression
	}
	return &ZstdCompressor{level: encoderLevel}
}

func (c *ZstdCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return encoder, nil
}

func (c *ZstdCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return decoder.IOReadCloser(), nil
}

func (c *ZstdCompressor) Extension() string {
	return ".zst"
}
