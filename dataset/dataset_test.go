package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/sckm/point"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	input := `# planted sample
0110,malware

0011,accept
1010
	0101 , malware
`

	data, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, data, 4)

	assert.Equal(t, "0110", data[0].Point.String())
	assert.Equal(t, point.LabelMalware, data[0].Label)
	assert.Equal(t, "0011", data[1].Point.String())
	assert.Equal(t, point.LabelAccept, data[1].Label)
	assert.Equal(t, "1010", data[2].Point.String())
	assert.Equal(t, point.LabelNone, data[2].Label)
	assert.Equal(t, point.LabelMalware, data[3].Label)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"BadBit", "0110\n01x0\n", 2},
		{"UnknownLabel", "0110,evil\n", 1},
		{"TrailingComma", "0110,\n", 1},
		{"MixedDimension", "0110,accept\n# ok\n011,malware\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))

			var syntaxErr *ErrSyntax
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.wantLine, syntaxErr.Line)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	data, err := Decode(strings.NewReader("# only comments\n\n"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := []point.Labeled{
		{Point: point.MustParse("0110"), Label: point.LabelMalware},
		{Point: point.MustParse("0011"), Label: point.LabelAccept},
		{Point: point.MustParse("1010"), Label: point.LabelNone},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, data))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestLoadSave(t *testing.T) {
	name := filepath.Join(t.TempDir(), "packages.txt")

	data := []point.Labeled{
		{Point: point.MustParse("000"), Label: point.LabelAccept},
		{Point: point.MustParse("111"), Label: point.LabelMalware},
	}

	require.NoError(t, Save(name, data))

	loaded, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
