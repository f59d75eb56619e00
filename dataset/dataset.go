package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/sckm/point"
)

// maxLineSize bounds a single record; generous enough for very wide
// feature spaces.
const maxLineSize = 1 << 20

// ErrSyntax reports a malformed record with its 1-based line number.
type ErrSyntax struct {
	Line int
	Msg  string
}

func (e *ErrSyntax) Error() string {
	return fmt.Sprintf("dataset: line %d: %s", e.Line, e.Msg)
}

// Decode reads labeled boolean points from r, one record per line:
//
//	0110,malware
//	0011,accept
//	1010
//
// The bit string is required; the label is optional. Blank lines and
// lines starting with '#' are skipped. All records must share one
// dimension.
func Decode(r io.Reader) ([]point.Labeled, error) {
	var data []point.Labeled
	dim := -1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		bits, labelStr, found := strings.Cut(line, ",")
		bits = strings.TrimSpace(bits)
		labelStr = strings.TrimSpace(labelStr)
		if found && labelStr == "" {
			return nil, &ErrSyntax{Line: lineNo, Msg: "trailing comma without label"}
		}

		p, err := point.Parse(bits)
		if err != nil {
			return nil, &ErrSyntax{Line: lineNo, Msg: err.Error()}
		}
		if dim < 0 {
			dim = p.Dim()
		} else if p.Dim() != dim {
			return nil, &ErrSyntax{
				Line: lineNo,
				Msg:  fmt.Sprintf("dimension %d does not match established dimension %d", p.Dim(), dim),
			}
		}

		label, err := point.ParseLabel(labelStr)
		if err != nil {
			return nil, &ErrSyntax{Line: lineNo, Msg: err.Error()}
		}

		data = append(data, point.Labeled{Point: p, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: scan: %w", err)
	}

	return data, nil
}

// Encode writes the dataset in the format accepted by Decode.
func Encode(w io.Writer, data []point.Labeled) error {
	bw := bufio.NewWriter(w)

	for _, lp := range data {
		if _, err := bw.WriteString(lp.Point.String()); err != nil {
			return err
		}
		if lp.Label != point.LabelNone {
			if _, err := bw.WriteString("," + lp.Label.String()); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Load reads a dataset file.
func Load(name string) ([]point.Labeled, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Save writes a dataset file.
func Save(name string, data []point.Labeled) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	if err := Encode(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
