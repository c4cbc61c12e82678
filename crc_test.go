package manifest

import "testing"

func TestMaskUnmaskRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0xdeadbeef, 0xa282ead8, 1<<32 - 1, 0x12345678}

	for _, v := range values {
		if got := unmaskCRC(maskCRC(v)); got != v {
			t.Errorf("unmask(mask(%#x)) = %#x", v, got)
		}
		if got := maskCRC(unmaskCRC(v)); got != v {
			t.Errorf("mask(unmask(%#x)) = %#x", v, got)
		}
	}
}

// The mask exists so that a zero-filled region does not verify: a masked
// zero checksum must not be zero, and masking must change the value.
func TestMaskChangesValue(t *testing.T) {
	if maskCRC(0) == 0 {
		t.Error("mask(0) = 0, zero-filled padding would verify")
	}
	if maskCRC(0xdeadbeef) == 0xdeadbeef {
		t.Error("mask is the identity for 0xdeadbeef")
	}
}

// unmask is the documented transform: rotate_right(stored - 0xa282ead8, 17).
func TestUnmaskKnownTransform(t *testing.T) {
	stored := uint32(0xa282ead8 + 4) // delta cancels, leaves 4 to rotate
	want := uint32(4>>17 | 4<<15)
	if got := unmaskCRC(stored); got != want {
		t.Errorf("unmaskCRC(%#x) = %#x, want %#x", stored, got, want)
	}
}

func TestChecksumCoversTypeByte(t *testing.T) {
	payload := []byte("payload")
	if checksum(typeFull, payload) == checksum(typeFirst, payload) {
		t.Error("checksum ignores the type byte")
	}
}

// Any single-bit flip in the payload changes the CRC.
func TestChecksumDetectsBitFlips(t *testing.T) {
	payload := []byte("the quick brown fox")
	want := checksum(typeFull, payload)

	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), payload...)
			flipped[i] ^= 1 << bit
			if checksum(typeFull, flipped) == want {
				t.Fatalf("flip of byte %d bit %d not detected", i, bit)
			}
		}
	}
}
