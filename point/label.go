package point

import "fmt"

// Label is the optional supervision hint attached to a point.
type Label uint8

const (
	// LabelNone marks an unlabeled point.
	LabelNone Label = iota
	// LabelMalware marks a point drawn from a known-malicious package.
	LabelMalware
	// LabelAccept marks a point drawn from a known-acceptable package.
	LabelAccept
)

func (l Label) String() string {
	switch l {
	case LabelNone:
		return "none"
	case LabelMalware:
		return "malware"
	case LabelAccept:
		return "accept"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

// Opposes reports whether l and m are strictly disagreeing hints
// (one malware, one accept). LabelNone opposes nothing.
func (l Label) Opposes(m Label) bool {
	return (l == LabelMalware && m == LabelAccept) ||
		(l == LabelAccept && m == LabelMalware)
}

// ParseLabel converts a textual label into a Label.
// The empty string parses as LabelNone.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "":
		return LabelNone, nil
	case "malware":
		return LabelMalware, nil
	case "accept":
		return LabelAccept, nil
	default:
		return LabelNone, fmt.Errorf("point: unknown label %q", s)
	}
}
