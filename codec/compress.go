package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the payload raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd block compression (better ratio, cold data).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compress returns the compressed payload, or nil when the payload
// should be stored raw (compression off, incompressible input, or a
// ratio that does not pay off).
func compress(payload []byte, c Compression) ([]byte, error) {
	if c == CompressionNone || len(payload) == 0 {
		return nil, nil
	}

	var compressed []byte
	switch c {
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // incompressible
		}
		compressed = buf[:n]
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		compressed = enc.EncodeAll(payload, nil)
	default:
		return nil, fmt.Errorf("codec: unknown compression %s", c)
	}

	if len(compressed) >= len(payload) {
		return nil, nil
	}
	return compressed, nil
}

func decompress(stored []byte, uncompressedSize int, c Compression) ([]byte, error) {
	switch c {
	case CompressionLZ4:
		out := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(stored, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out[:n], nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(stored, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, nil
	case CompressionNone:
		return nil, fmt.Errorf("%w: compressed payload without algorithm", ErrCorrupt)
	default:
		return nil, fmt.Errorf("codec: unknown compression %s", c)
	}
}
