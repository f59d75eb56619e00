// Package snapshot implements the binary on-disk format for model
// state: a fixed 64-byte header (magic, version, shape, checksum)
// followed by a CRC32-C verified, optionally compressed payload
// carrying the labeled dataset, the assignment, and the center list.
//
// Payloads compress with ZSTD by default; LZ4 and uncompressed
// encodings are available via Options. Incompressible payloads fall
// back to uncompressed storage transparently.
package snapshot
