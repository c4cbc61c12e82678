// Checksum verification for physical record fragments.
//
// Each fragment header stores a CRC-32C (Castagnoli) of the type byte
// followed by the payload. The stored value is masked: rotated left 17 bits
// and offset by a constant, so that a checksum of data that itself contains
// checksums — or a zero-filled disk region — does not accidentally verify.
// Reading reverses the mask before comparing.
package manifest

import "hash/crc32"

// maskDelta is the additive constant of the checksum mask.
const maskDelta = 0xa282ead8

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// unmaskCRC reverses the storage masking: subtract the delta, rotate right
// 17 bits. Bit-for-bit the inverse of maskCRC.
func unmaskCRC(stored uint32) uint32 {
	rot := stored - maskDelta
	return rot>>17 | rot<<15
}

// maskCRC applies the write-side masking: rotate left 17 bits, add the
// delta. The package never writes manifests; this exists so tests can build
// fixtures with valid headers, and as executable documentation of the
// on-disk transform.
func maskCRC(c uint32) uint32 {
	return (c>>15 | c<<17) + maskDelta
}

// checksum computes the CRC-32C over the fragment's type byte followed by
// its payload, the quantity compared against the unmasked stored value.
func checksum(typ byte, payload []byte) uint32 {
	c := crc32.Update(0, castagnoli, []byte{typ})
	return crc32.Update(c, castagnoli, payload)
}
