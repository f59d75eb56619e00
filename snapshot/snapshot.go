package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/sckm/internal/bitvec"
	"github.com/hupe1980/sckm/internal/conv"
	"github.com/hupe1980/sckm/point"
)

// State is the serializable form of one model generation: the labeled
// dataset, the per-point assignment, and the center list. A ready
// model snapshots its singleton initialization; a trained model
// snapshots its frozen clustering.
type State struct {
	Dim          int
	Trained      bool
	ClusterCount int // meaningful only when Trained
	Points       []point.Labeled
	Assign       []int
	Centers      []point.BoolPoint
}

// Options configures snapshot encoding.
type Options struct {
	// Compression selects the payload compression.
	Compression CompressionType
}

// Write encodes the state to w: a 64-byte header followed by the
// checksummed, optionally compressed payload.
func Write(w io.Writer, state *State, optFns ...func(o *Options)) error {
	opts := Options{
		Compression: CompressionZSTD,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := validateState(state); err != nil {
		return err
	}

	payload, err := compressPayload(encodePayload(state), opts.Compression)
	if err != nil {
		return err
	}

	header := FileHeader{
		Magic:        MagicNumber,
		Version:      Version,
		Compression:  uint8(opts.Compression),
		Dimension:    uint32(state.Dim),
		PointCount:   uint64(len(state.Points)),
		CenterCount:  uint32(len(state.Centers)),
		ClusterCount: uint32(state.ClusterCount),
		PayloadSize:  uint64(len(payload)),
		Checksum:     crc32c(payload),
	}
	if state.Trained {
		header.Trained = 1
	}

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("snapshot: write payload: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write, verifying the checksum and
// the structural invariants of the payload. Every allocation sized
// from the stream goes through the header limits first, so corrupt or
// hostile input fails with an error instead of an oversized make.
func Read(r io.Reader) (*State, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if err := header.validate(); err != nil {
		return nil, err
	}

	payloadSize, err := conv.Uint64ToInt(header.PayloadSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	rawCap, err := conv.Uint64ToInt(header.rawPayloadSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("snapshot: read payload: %w", err)
	}
	if crc32c(payload) != header.Checksum {
		return nil, ErrChecksumMismatch
	}

	raw, err := decompressPayload(payload, CompressionType(header.Compression), rawCap)
	if err != nil {
		return nil, err
	}

	return decodePayload(&header, raw)
}

func validateState(state *State) error {
	if state.Dim <= 0 {
		return fmt.Errorf("snapshot: invalid dimension %d", state.Dim)
	}
	if len(state.Points) == 0 {
		return fmt.Errorf("snapshot: empty dataset")
	}
	if len(state.Assign) != len(state.Points) {
		return fmt.Errorf("snapshot: assignment length %d does not match %d points", len(state.Assign), len(state.Points))
	}
	if len(state.Centers) == 0 {
		return fmt.Errorf("snapshot: empty center list")
	}
	if len(state.Centers) > len(state.Points) {
		return fmt.Errorf("snapshot: %d centers for %d points", len(state.Centers), len(state.Points))
	}
	if state.Trained && state.ClusterCount != len(state.Centers) {
		return fmt.Errorf("snapshot: cluster count %d does not match %d centers", state.ClusterCount, len(state.Centers))
	}
	for _, c := range state.Assign {
		if c < 0 || c >= len(state.Centers) {
			return fmt.Errorf("snapshot: assignment entry %d out of range", c)
		}
	}
	return nil
}

// Payload layout, little-endian, after decompression:
//
//	labels      PointCount x uint8
//	assignment  PointCount x uint32
//	points      PointCount x wordsPerPoint x uint64
//	centers     CenterCount x wordsPerPoint x uint64
//
// wordsPerPoint is derived from the header dimension.
func encodePayload(state *State) []byte {
	words := bitvec.Words(state.Dim)
	size := len(state.Points)*(1+4+words*8) + len(state.Centers)*words*8

	buf := bytes.NewBuffer(make([]byte, 0, size))
	for _, lp := range state.Points {
		buf.WriteByte(uint8(lp.Label))
	}
	for _, c := range state.Assign {
		_ = binary.Write(buf, binary.LittleEndian, uint32(c))
	}
	for _, lp := range state.Points {
		_ = binary.Write(buf, binary.LittleEndian, lp.Point.Words())
	}
	for _, c := range state.Centers {
		_ = binary.Write(buf, binary.LittleEndian, c.Words())
	}
	return buf.Bytes()
}

func decodePayload(header *FileHeader, raw []byte) (*State, error) {
	dim := int(header.Dimension)
	points := int(header.PointCount)
	centers := int(header.CenterCount)
	words := bitvec.Words(dim)

	expected := points*(1+4+words*8) + centers*words*8
	if len(raw) != expected {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrCorrupted, len(raw), expected)
	}

	state := &State{
		Dim:          dim,
		Trained:      header.Trained == 1,
		ClusterCount: int(header.ClusterCount),
		Points:       make([]point.Labeled, points),
		Assign:       make([]int, points),
		Centers:      make([]point.BoolPoint, centers),
	}

	r := bytes.NewReader(raw)

	labels := make([]uint8, points)
	if err := binary.Read(r, binary.LittleEndian, labels); err != nil {
		return nil, fmt.Errorf("%w: labels: %v", ErrCorrupted, err)
	}
	for i, l := range labels {
		if l > uint8(point.LabelAccept) {
			return nil, fmt.Errorf("%w: unknown label %d", ErrCorrupted, l)
		}
		state.Points[i].Label = point.Label(l)
	}

	assign := make([]uint32, points)
	if err := binary.Read(r, binary.LittleEndian, assign); err != nil {
		return nil, fmt.Errorf("%w: assignment: %v", ErrCorrupted, err)
	}
	for i, c := range assign {
		if int(c) >= centers {
			return nil, fmt.Errorf("%w: assignment entry %d out of range", ErrCorrupted, c)
		}
		state.Assign[i] = int(c)
	}

	wordBuf := make([]uint64, words)
	for i := range state.Points {
		if err := binary.Read(r, binary.LittleEndian, wordBuf); err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrCorrupted, i, err)
		}
		p, err := point.FromWords(dim, wordBuf)
		if err != nil {
			return nil, fmt.Errorf("%w: point %d: %v", ErrCorrupted, i, err)
		}
		state.Points[i].Point = p
	}
	for i := range state.Centers {
		if err := binary.Read(r, binary.LittleEndian, wordBuf); err != nil {
			return nil, fmt.Errorf("%w: center %d: %v", ErrCorrupted, i, err)
		}
		c, err := point.FromWords(dim, wordBuf)
		if err != nil {
			return nil, fmt.Errorf("%w: center %d: %v", ErrCorrupted, i, err)
		}
		state.Centers[i] = c
	}

	return state, nil
}
