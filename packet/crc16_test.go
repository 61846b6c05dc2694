package packet

import "testing"

func TestCRC16KnownVector(t *testing.T) {
	// The standard CRC-16/CCITT-FALSE check value.
	if got := CRC16([]byte("123456789")); got != 0x29B1 {
		t.Fatalf("CRC16 = %04X, want 29B1", got)
	}
}

func TestCRC16Empty(t *testing.T) {
	// Empty input returns the initial register value untouched.
	if got := CRC16(nil); got != 0xFFFF {
		t.Fatalf("CRC16(nil) = %04X, want FFFF", got)
	}
}

func TestCRC16DetectsSingleBitFlips(t *testing.T) {
	data := []byte("satellite downlink frame")
	want := CRC16(data)
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(data))
			copy(mutated, data)
			mutated[i] ^= 1 << bit
			if CRC16(mutated) == want {
				t.Fatalf("flip of byte %d bit %d went undetected", i, bit)
			}
		}
	}
}
