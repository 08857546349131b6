// internal/content/compression.go
package content

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressor wraps a shared zstd encoder/decoder pair. EncodeAll and
// DecodeAll are safe for concurrent use, so one pair serves the store.
type compressor struct {
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	minSize int
}

func newCompressor(minSize int) (*compressor, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	return &compressor{enc: enc, dec: dec, minSize: minSize}, nil
}

// compress returns the compressed content and whether compression was
// applied. Content below the size threshold is passed through.
func (c *compressor) compress(content []byte) ([]byte, bool) {
	if len(content) < c.minSize {
		return content, false
	}
	return c.enc.EncodeAll(content, nil), true
}

func (c *compressor) decompress(content []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(content, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing content: %w", err)
	}
	return out, nil
}

func (c *compressor) close() {
	c.enc.Close()
	c.dec.Close()
}
