package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/hupe1980/sckm/internal/conv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm applied to the
// snapshot payload.
type CompressionType uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone CompressionType = 0
	// CompressionLZ4 applies LZ4 block compression (fast).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD applies ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// ZSTD encoder/decoder pools for efficiency
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

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Stored payload format: [RawSize uint32][StoredSize uint32][Data...].
// StoredSize == 0 means the data is kept uncompressed (either
// CompressionNone or an incompressible payload).
const blockHeaderSize = 8

// compressPayload wraps data in a block header, compressing it with
// the given algorithm. Payloads that do not shrink below a 0.9 ratio
// are stored uncompressed.
func compressPayload(data []byte, compressionType CompressionType) ([]byte, error) {
	// The block header stores sizes as uint32.
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("snapshot: payload %d bytes exceeds block format limit", len(data))
	}

	var compressed []byte
	var err error

	switch compressionType {
	case CompressionNone:
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	default:
		return nil, fmt.Errorf("snapshot: unsupported compression type %d", compressionType)
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(result[4:], 0) // 0 = uncompressed
		copy(result[blockHeaderSize:], data)
		return result, nil
	}

	result := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[blockHeaderSize:], compressed)
	return result, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	compressed := make([]byte, lz4.CompressBlockBound(len(data)))

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // Incompressible
	}
	return compressed[:n], nil
}

// decompressPayload unwraps a stored payload written by compressPayload.
// maxRaw caps the decompressed size, so a corrupt block header cannot
// demand an arbitrary allocation. All bounds arithmetic runs in int to
// keep a hostile size field from wrapping a comparison.
func decompressPayload(data []byte, compressionType CompressionType, maxRaw int) ([]byte, error) {
	if len(data) < blockHeaderSize {
		return nil, fmt.Errorf("%w: payload too small for block header", ErrCorrupted)
	}

	rawSize, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data[0:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	storedSize, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(data[4:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	if rawSize > maxRaw {
		return nil, fmt.Errorf("%w: block declares %d raw bytes, limit %d", ErrCorrupted, rawSize, maxRaw)
	}

	if storedSize == 0 {
		if rawSize > len(data)-blockHeaderSize {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorrupted)
		}
		return data[blockHeaderSize : blockHeaderSize+rawSize], nil
	}

	if storedSize > len(data)-blockHeaderSize {
		return nil, fmt.Errorf("%w: truncated compressed payload", ErrCorrupted)
	}

	stored := data[blockHeaderSize : blockHeaderSize+storedSize]
	result := make([]byte, rawSize)

	switch compressionType {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(stored, result)
		if err != nil {
			return nil, err
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupted)
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(stored, result[:0])
		if err != nil {
			return nil, err
		}
		if len(decoded) != rawSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupted)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("%w: compressed payload with compression type %d", ErrCorrupted, compressionType)
	}
}
