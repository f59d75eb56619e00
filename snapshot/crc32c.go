package snapshot

import "hash/crc32"

// crc32cTable is pre-computed for the CRC32-Castagnoli polynomial.
// Computing this once avoids repeated MakeTable calls.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// crc32c computes the CRC32-Castagnoli checksum of data.
// Uses hardware acceleration when available.
func crc32c(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}
