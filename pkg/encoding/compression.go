package encoding

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Compressor transforms whole frames. Implementations must be safe for concurrent use.
type Compressor interface {
	Name() string
	Compress(src []byte) []byte
	Decompress(src []byte) ([]byte, error)
	// Close releases background resources. It is safe to call more than once.
	Close() error
}

// Identity leaves frames untouched.
type Identity struct{}

func (Identity) Name() string                          { return "none" }
func (Identity) Compress(src []byte) []byte            { return src }
func (Identity) Decompress(src []byte) ([]byte, error) { return src, nil }
func (Identity) Close() error                          { return nil }

// Zstd compresses frames with zstd using stateless EncodeAll/DecodeAll calls.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder

	closeOnce sync.Once
	closeErr  error
}

func NewZstd() (*Zstd, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Zstd{enc: enc, dec: dec}, nil
}

func (z *Zstd) Name() string { return "zstd" }

func (z *Zstd) Compress(src []byte) []byte {
	return z.enc.EncodeAll(src, make([]byte, 0, len(src)))
}

func (z *Zstd) Decompress(src []byte) ([]byte, error) {
	out, err := z.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Close stops the decoder goroutines. Decompress fails afterwards.
func (z *Zstd) Close() error {
	z.closeOnce.Do(func() {
		z.dec.Close()
		z.closeErr = z.enc.Close()
	})
	return z.closeErr
}

// NewCompressor resolves a compressor by its configured name.
func NewCompressor(name string) (Compressor, error) {
	switch name {
	case "", "none":
		return Identity{}, nil
	case "zstd":
		return NewZstd()
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
