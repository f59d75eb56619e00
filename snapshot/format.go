package snapshot

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sckm/internal/bitvec"
)

const (
	// MagicNumber identifies SCKM snapshot files (ASCII: "SKM1").
	MagicNumber = 0x534B4D31
	// Version is the current snapshot format version.
	Version = 0x00010000

	headerSize = 64
)

// Decode limits. Headers demanding more are rejected before any
// allocation is sized from untrusted fields.
const (
	maxDimension   = 1 << 20
	maxPointCount  = 100_000_000
	maxPayloadSize = 1 << 32
)

var (
	// ErrInvalidMagic is returned when the stream does not start with
	// an SCKM snapshot header.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion is returned for snapshots written by an
	// unsupported format version.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrChecksumMismatch is returned when the payload checksum does
	// not match the header.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrCorrupted is returned when the payload is structurally
	// inconsistent with the header.
	ErrCorrupted = errors.New("corrupted snapshot")
)

// FileHeader is the 64-byte little-endian header at the start of every
// snapshot. Layout keeps fixed offsets for forward compatibility.
type FileHeader struct {
	Magic        uint32
	Version      uint32
	Trained      uint8 // 0 = ready model, 1 = trained (done) model
	Compression  uint8 // CompressionType of the payload
	Padding1     [2]byte
	Dimension    uint32
	PointCount   uint64
	CenterCount  uint32
	ClusterCount uint32
	PayloadSize  uint64 // stored payload bytes following the header
	Checksum     uint32 // CRC32-C of the stored payload
	Padding2     [4]byte
	Reserved     [16]byte
}

func (h *FileHeader) validate() error {
	if h.Magic != MagicNumber {
		return ErrInvalidMagic
	}
	if h.Version != Version {
		return ErrInvalidVersion
	}
	if h.Trained > 1 {
		return ErrCorrupted
	}
	if h.Dimension == 0 || h.PointCount == 0 || h.CenterCount == 0 {
		return ErrCorrupted
	}
	if h.Dimension > maxDimension {
		return fmt.Errorf("%w: dimension %d exceeds limit", ErrCorrupted, h.Dimension)
	}
	if h.PointCount > maxPointCount {
		return fmt.Errorf("%w: point count %d exceeds limit", ErrCorrupted, h.PointCount)
	}
	// Centers start as one singleton per point and only ever merge.
	if uint64(h.CenterCount) > h.PointCount {
		return fmt.Errorf("%w: %d centers for %d points", ErrCorrupted, h.CenterCount, h.PointCount)
	}
	// A trained snapshot stores its compacted centers, one per cluster.
	if h.Trained == 1 && h.ClusterCount != h.CenterCount {
		return fmt.Errorf("%w: cluster count %d does not match %d centers", ErrCorrupted, h.ClusterCount, h.CenterCount)
	}
	if h.PayloadSize > maxPayloadSize || h.PayloadSize > blockHeaderSize+h.rawPayloadSize() {
		return fmt.Errorf("%w: payload size %d exceeds limit", ErrCorrupted, h.PayloadSize)
	}
	return nil
}

// rawPayloadSize returns the decompressed payload size implied by the
// header counts. The limits enforced by validate keep the arithmetic
// well below uint64 overflow.
func (h *FileHeader) rawPayloadSize() uint64 {
	words := uint64(bitvec.Words(int(h.Dimension)))
	return h.PointCount*(1+4+words*8) + uint64(h.CenterCount)*words*8
}
