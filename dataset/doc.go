// Package dataset reads and writes labeled boolean points as plain
// text, one record per line:
//
//	# comment
//	0110,malware
//	0011,accept
//	1010
//
// The format is the interchange boundary with upstream feature
// extraction: whatever turns raw artifacts into boolean vectors writes
// these files, and a model is constructed from the decoded records.
package dataset
