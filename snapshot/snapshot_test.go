package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/hupe1980/sckm/point"
)

func testState() *State {
	return &State{
		Dim:          5,
		Trained:      true,
		ClusterCount: 2,
		Points: []point.Labeled{
			{Point: point.MustParse("10101"), Label: point.LabelMalware},
			{Point: point.MustParse("01010"), Label: point.LabelAccept},
			{Point: point.MustParse("11101"), Label: point.LabelNone},
			{Point: point.MustParse("01110"), Label: point.LabelNone},
		},
		Assign:  []int{0, 1, 0, 1},
		Centers: []point.BoolPoint{point.MustParse("10101"), point.MustParse("01010")},
	}
}

func assertStatesEqual(t *testing.T, got, want *State) {
	t.Helper()

	if got.Dim != want.Dim {
		t.Errorf("Dim mismatch: got %d, want %d", got.Dim, want.Dim)
	}
	if got.Trained != want.Trained {
		t.Errorf("Trained mismatch: got %v, want %v", got.Trained, want.Trained)
	}
	if got.ClusterCount != want.ClusterCount {
		t.Errorf("ClusterCount mismatch: got %d, want %d", got.ClusterCount, want.ClusterCount)
	}

	if len(got.Points) != len(want.Points) {
		t.Fatalf("point count mismatch: got %d, want %d", len(got.Points), len(want.Points))
	}
	for i := range want.Points {
		if !got.Points[i].Point.Equal(want.Points[i].Point) {
			t.Errorf("point %d mismatch: got %s, want %s", i, got.Points[i].Point, want.Points[i].Point)
		}
		if got.Points[i].Label != want.Points[i].Label {
			t.Errorf("label %d mismatch: got %s, want %s", i, got.Points[i].Label, want.Points[i].Label)
		}
		if got.Assign[i] != want.Assign[i] {
			t.Errorf("assignment %d mismatch: got %d, want %d", i, got.Assign[i], want.Assign[i])
		}
	}

	if len(got.Centers) != len(want.Centers) {
		t.Fatalf("center count mismatch: got %d, want %d", len(got.Centers), len(want.Centers))
	}
	for i := range want.Centers {
		if !got.Centers[i].Equal(want.Centers[i]) {
			t.Errorf("center %d mismatch: got %s, want %s", i, got.Centers[i], want.Centers[i])
		}
	}
}

func TestWriteRead(t *testing.T) {
	want := testState()

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	assertStatesEqual(t, got, want)
}

func TestWriteReadCompressionTypes(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			want := testState()

			var buf bytes.Buffer
			err := Write(&buf, want, func(o *Options) {
				o.Compression = ct
			})
			if err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}

			assertStatesEqual(t, got, want)
		})
	}
}

func TestWriteReadWideDimension(t *testing.T) {
	// 130 bits spans three words; the last word carries slack bits.
	const dim = 130

	bits := make([]bool, dim)
	for j := 0; j < dim; j += 3 {
		bits[j] = true
	}
	p := point.New(bits)

	want := &State{
		Dim:          dim,
		Trained:      true,
		ClusterCount: 1,
		Points: []point.Labeled{
			{Point: p, Label: point.LabelMalware},
			{Point: p.Clone(), Label: point.LabelNone},
		},
		Assign:  []int{0, 0},
		Centers: []point.BoolPoint{p.Clone()},
	}

	var buf bytes.Buffer
	if err := Write(&buf, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	assertStatesEqual(t, got, want)
}

func TestReadErrors(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		if err := Write(&buf, testState()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		return buf.Bytes()
	}

	t.Run("InvalidMagic", func(t *testing.T) {
		raw := encode()
		raw[0] ^= 0xFF

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrInvalidMagic) {
			t.Errorf("got %v, want ErrInvalidMagic", err)
		}
	})

	t.Run("InvalidVersion", func(t *testing.T) {
		raw := encode()
		raw[4] ^= 0xFF

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrInvalidVersion) {
			t.Errorf("got %v, want ErrInvalidVersion", err)
		}
	})

	t.Run("CorruptedPayload", func(t *testing.T) {
		raw := encode()
		raw[len(raw)-1] ^= 0xFF

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Errorf("got %v, want ErrChecksumMismatch", err)
		}
	})

	t.Run("InconsistentHeader", func(t *testing.T) {
		raw := encode()
		// PointCount lives at offset 16; bumping it makes the payload
		// shorter than the header demands.
		raw[16] ^= 0xFF

		_, err := Read(bytes.NewReader(raw))
		if err == nil {
			t.Error("expected an error for an inconsistent header")
		}
	})

	t.Run("OversizedPayloadSize", func(t *testing.T) {
		raw := encode()
		// PayloadSize lives at offset 32. A header demanding more bytes
		// than the declared shape can hold must fail before the decoder
		// allocates the payload buffer.
		binary.LittleEndian.PutUint64(raw[32:], 1<<62)

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrCorrupted) {
			t.Errorf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("ClusterCountMismatch", func(t *testing.T) {
		raw := encode()
		// ClusterCount lives at offset 28; a trained snapshot carries
		// exactly one center per cluster.
		raw[28] ^= 0xFF

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrCorrupted) {
			t.Errorf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("BlockRawSizeOverflow", func(t *testing.T) {
		raw := encode()
		// The stored payload starts at offset 64 with its raw size as
		// the first block header field. A value near MaxUint32 must be
		// rejected even when the checksum over the payload is valid.
		binary.LittleEndian.PutUint32(raw[headerSize:], 0xFFFFFFFF)
		binary.LittleEndian.PutUint32(raw[40:], crc32c(raw[headerSize:]))

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrCorrupted) {
			t.Errorf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("CenterCountAbovePointCount", func(t *testing.T) {
		raw := encode()
		// CenterCount lives at offset 24; centers never outnumber points.
		binary.LittleEndian.PutUint32(raw[24:], 9)

		_, err := Read(bytes.NewReader(raw))
		if !errors.Is(err, ErrCorrupted) {
			t.Errorf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		raw := encode()

		_, err := Read(bytes.NewReader(raw[:len(raw)-4]))
		if err == nil {
			t.Error("expected an error for a truncated stream")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := Read(bytes.NewReader([]byte("not a snapshot at all")))
		if err == nil {
			t.Error("expected an error for garbage input")
		}
	})
}

func TestWriteValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *State)
	}{
		{"ZeroDimension", func(s *State) { s.Dim = 0 }},
		{"NoPoints", func(s *State) { s.Points = nil }},
		{"AssignLengthMismatch", func(s *State) { s.Assign = s.Assign[:2] }},
		{"AssignOutOfRange", func(s *State) { s.Assign[0] = 7 }},
		{"NoCenters", func(s *State) { s.Centers = nil }},
		{"TrainedClusterCountMismatch", func(s *State) { s.ClusterCount = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := testState()
			tt.mutate(state)

			var buf bytes.Buffer
			if err := Write(&buf, state); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestCompressPayloadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	compressible := bytes.Repeat([]byte{0x00, 0xAA}, 4096)
	incompressible := make([]byte, 4096)
	rng.Read(incompressible)

	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for name, data := range map[string][]byte{
			"compressible":   compressible,
			"incompressible": incompressible,
		} {
			stored, err := compressPayload(data, ct)
			if err != nil {
				t.Fatalf("%s/%s: compress failed: %v", ct, name, err)
			}

			raw, err := decompressPayload(stored, ct, len(data))
			if err != nil {
				t.Fatalf("%s/%s: decompress failed: %v", ct, name, err)
			}

			if !bytes.Equal(raw, data) {
				t.Errorf("%s/%s: payload differs after round trip", ct, name)
			}
		}
	}
}

func TestDecompressPayloadBounds(t *testing.T) {
	data := bytes.Repeat([]byte{0xC3}, 64)

	t.Run("RawSizeAboveCap", func(t *testing.T) {
		stored, err := compressPayload(data, CompressionNone)
		if err != nil {
			t.Fatalf("compress failed: %v", err)
		}
		binary.LittleEndian.PutUint32(stored[0:], 0xFFFFFFFF)

		if _, err := decompressPayload(stored, CompressionNone, len(data)); !errors.Is(err, ErrCorrupted) {
			t.Errorf("got %v, want ErrCorrupted", err)
		}
	})

	t.Run("CapBelowRawSize", func(t *testing.T) {
		stored, err := compressPayload(data, CompressionNone)
		if err != nil {
			t.Fatalf("compress failed: %v", err)
		}

		if _, err := decompressPayload(stored, CompressionNone, len(data)-1); !errors.Is(err, ErrCorrupted) {
			t.Errorf("got %v, want ErrCorrupted", err)
		}
	})
}
