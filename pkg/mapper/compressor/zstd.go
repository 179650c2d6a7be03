package compressor

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZSTD compresses payloads with zstandard. Encoders/decoders are expensive
// to construct, so one of each is kept and reused, guarded by a mutex since
// neither is safe for concurrent use.
type ZSTD struct {
	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZSTD returns a ready-to-use zstd Compressor at the given level (pass
// zstd.SpeedDefault for a sensible default).
func NewZSTD(level zstd.EncoderLevel) (*ZSTD, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &ZSTD{encoder: enc, decoder: dec}, nil
}

func (z *ZSTD) Compress(data []byte) ([]byte, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.encoder.EncodeAll(data, make([]byte, 0, len(data))), nil
}

func (z *ZSTD) Decompress(data []byte) ([]byte, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Close releases the encoder/decoder's background goroutines.
func (z *ZSTD) Close() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.encoder.Close()
	z.decoder.Close()
}
