// Package codec serializes bitmaps into a self-describing binary
// format with optional block compression and checksum validation.
//
// Layout:
//
//	[magic 4B "BGRL"][version 1B][compression 1B]
//	[uncompressedSize uint32][compressedSize uint32][payload]
//	[crc32 uint32]
//
// compressedSize == 0 marks a raw payload, which is also used as a
// fallback when compression does not pay off. The payload holds the
// run count, the logical bit length, and one (data, size) pair per
// run, all little-endian. The CRC32 (IEEE) covers everything before
// the checksum itself.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/hupe1980/bitgo"
	"github.com/hupe1980/bitgo/internal/word"
)

var magic = [4]byte{'B', 'G', 'R', 'L'}

const (
	version = 1

	headerSize   = 4 + 1 + 1 + 4 + 4
	checksumSize = 4
)

var (
	// ErrTooShort is returned when the input cannot hold a frame.
	ErrTooShort = errors.New("codec: input too short")
	// ErrBadMagic is returned when the magic bytes do not match.
	ErrBadMagic = errors.New("codec: bad magic")
	// ErrVersion is returned for an unsupported format version.
	ErrVersion = errors.New("codec: unsupported version")
	// ErrChecksum is returned when the CRC32 does not match.
	ErrChecksum = errors.New("codec: checksum mismatch")
	// ErrCorrupt is returned when the payload violates the run format.
	ErrCorrupt = errors.New("codec: corrupt payload")
	// ErrTooLarge is returned when a bitmap has more runs than the
	// frame's 32-bit payload size field can describe.
	ErrTooLarge = errors.New("codec: bitmap too large to encode")
)

// maxEncodeRuns is the largest run count whose payload size still fits
// the frame's uint32 size field.
const maxEncodeRuns = (math.MaxUint32 - 16) / 16

type options struct {
	compression Compression
}

// Option configures encoding.
type Option func(*options)

// WithCompression selects the payload compression. Default is none.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// Encode serializes a bitmap.
func Encode(bm *bitgo.Bitmap, opts ...Option) ([]byte, error) {
	o := options{compression: CompressionNone}
	for _, opt := range opts {
		opt(&o)
	}

	if bm.NumRuns() > maxEncodeRuns {
		return nil, fmt.Errorf("%w: %d runs", ErrTooLarge, bm.NumRuns())
	}

	payload := make([]byte, 16, 16+16*bm.NumRuns())
	binary.LittleEndian.PutUint64(payload[0:], uint64(bm.NumRuns()))
	binary.LittleEndian.PutUint64(payload[8:], bm.Len())
	for r := range bm.Runs() {
		payload = binary.LittleEndian.AppendUint64(payload, r.Data)
		payload = binary.LittleEndian.AppendUint64(payload, r.Size)
	}

	compressed, err := compress(payload, o.compression)
	if err != nil {
		return nil, err
	}
	stored := compressed
	storedSize := uint32(len(compressed))
	if compressed == nil {
		// Raw fallback: compression disabled or not worthwhile.
		stored = payload
		storedSize = 0
	}

	out := make([]byte, 0, headerSize+len(stored)+checksumSize)
	out = append(out, magic[:]...)
	out = append(out, version, byte(o.compression))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, storedSize)
	out = append(out, stored...)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out, nil
}

// Decode parses a frame produced by Encode and rebuilds the bitmap.
func Decode(data []byte) (*bitgo.Bitmap, error) {
	if len(data) < headerSize+checksumSize {
		return nil, ErrTooShort
	}
	if [4]byte(data[:4]) != magic {
		return nil, ErrBadMagic
	}
	if data[4] != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, data[4])
	}

	body := data[:len(data)-checksumSize]
	want := binary.LittleEndian.Uint32(data[len(data)-checksumSize:])
	if crc32.ChecksumIEEE(body) != want {
		return nil, ErrChecksum
	}

	compression := Compression(data[5])
	uncompressedSize := binary.LittleEndian.Uint32(data[6:])
	compressedSize := binary.LittleEndian.Uint32(data[10:])
	stored := body[headerSize:]

	var payload []byte
	if compressedSize == 0 {
		payload = stored
	} else {
		if uint32(len(stored)) != compressedSize {
			return nil, ErrCorrupt
		}
		var err error
		payload, err = decompress(stored, int(uncompressedSize), compression)
		if err != nil {
			return nil, err
		}
	}
	if uint32(len(payload)) != uncompressedSize {
		return nil, ErrCorrupt
	}

	return parsePayload(payload)
}

func parsePayload(payload []byte) (*bitgo.Bitmap, error) {
	if len(payload) < 16 {
		return nil, ErrCorrupt
	}
	numRuns := binary.LittleEndian.Uint64(payload[0:])
	length := binary.LittleEndian.Uint64(payload[8:])
	// Divide before multiplying: 16*numRuns wraps for absurd run counts,
	// which would slip past an equality check and index out of range.
	if numRuns > (uint64(len(payload))-16)/16 {
		return nil, fmt.Errorf("%w: run count %d exceeds payload", ErrCorrupt, numRuns)
	}
	if uint64(len(payload)) != 16+16*numRuns {
		return nil, ErrCorrupt
	}

	bm := bitgo.New()
	for i := uint64(0); i < numRuns; i++ {
		data := binary.LittleEndian.Uint64(payload[16+16*i:])
		size := binary.LittleEndian.Uint64(payload[24+16*i:])
		switch {
		case size == 0:
			return nil, fmt.Errorf("%w: zero-sized run", ErrCorrupt)
		case size > word.Width:
			if !word.AllOrNone(data) {
				return nil, fmt.Errorf("%w: non-homogeneous fill", ErrCorrupt)
			}
			bm.AppendBits(data != 0, size)
		default:
			if size < word.Width && data&^word.LSBMask(size) != 0 {
				return nil, fmt.Errorf("%w: literal with bits past its size", ErrCorrupt)
			}
			bm.AppendBlock(data, size)
		}
	}
	if bm.Len() != length {
		return nil, fmt.Errorf("%w: length %d does not match runs (%d)", ErrCorrupt, length, bm.Len())
	}
	return bm, nil
}
