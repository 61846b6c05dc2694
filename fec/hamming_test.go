package fec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

func TestEncodeKnownCodeword(t *testing.T) {
	// d = 1011: p1 = 1^0^1 = 0, p2 = 1^1^1 = 1, p3 = 0^1^1 = 0.
	cw, err := Encode(modem.Bits{1, 0, 1, 1})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	want := modem.Bits{0, 1, 1, 0, 0, 1, 1}
	if !bytes.Equal(cw, want) {
		t.Fatalf("codeword = %v, want %v", cw, want)
	}
}

func TestEncodeLengthError(t *testing.T) {
	if _, err := Encode(modem.Bits{1, 0, 1}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("got %v, want ErrInvalidLength", err)
	}
}

func TestDecodeLengthError(t *testing.T) {
	if _, err := Decode(modem.Bits{1, 0, 1}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("got %v, want ErrInvalidLength", err)
	}
}

func TestDecodeCleanCodewords(t *testing.T) {
	for v := 0; v < 16; v++ {
		data := modem.Bits{byte(v >> 3 & 1), byte(v >> 2 & 1), byte(v >> 1 & 1), byte(v & 1)}
		cw, err := Encode(data)
		if err != nil {
			t.Fatalf("Encode(%v) error: %v", data, err)
		}
		res, err := Decode(cw)
		if err != nil {
			t.Fatalf("Decode error: %v", err)
		}
		if res.Corrected || res.Position != 0 {
			t.Fatalf("clean codeword %v reported correction at %d", cw, res.Position)
		}
		if !bytes.Equal(res.Data, data) {
			t.Fatalf("decoded %v, want %v", res.Data, data)
		}
	}
}

func TestDecodeCorrectsEverySingleBitFlip(t *testing.T) {
	for v := 0; v < 16; v++ {
		data := modem.Bits{byte(v >> 3 & 1), byte(v >> 2 & 1), byte(v >> 1 & 1), byte(v & 1)}
		cw, err := Encode(data)
		if err != nil {
			t.Fatalf("Encode error: %v", err)
		}
		for pos := 0; pos < CodewordBits; pos++ {
			damaged := make(modem.Bits, CodewordBits)
			copy(damaged, cw)
			damaged[pos] ^= 1

			res, err := Decode(damaged)
			if err != nil {
				t.Fatalf("Decode error: %v", err)
			}
			if !res.Corrected || res.Position != pos+1 {
				t.Fatalf("data %v flip at %d: corrected=%v position=%d",
					data, pos, res.Corrected, res.Position)
			}
			if !bytes.Equal(res.Data, data) {
				t.Fatalf("data %v flip at %d: decoded %v", data, pos, res.Data)
			}
		}
	}
}

func TestDecodeDoubleFlipMiscorrects(t *testing.T) {
	// Two flips alias to some single-flip syndrome: the decoder "corrects" a
	// third position and returns wrong data without signaling failure. The
	// packet CRC is the backstop for this case.
	cw, err := Encode(modem.Bits{1, 0, 1, 1})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	damaged := make(modem.Bits, CodewordBits)
	copy(damaged, cw)
	damaged[0] ^= 1
	damaged[1] ^= 1

	res, err := Decode(damaged)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !res.Corrected {
		t.Fatal("double flip produced a zero syndrome")
	}
	if bytes.Equal(res.Data, modem.Bits{1, 0, 1, 1}) {
		t.Fatal("double flip decoded to the original data; expected a miscorrection")
	}
}

func TestEncodeDecodeBytesRoundTrip(t *testing.T) {
	data := []byte("Hamming FEC")
	bits := EncodeBytes(data)
	if len(bits) != len(data)*2*CodewordBits {
		t.Fatalf("encoded %d bits, want %d", len(bits), len(data)*2*CodewordBits)
	}
	got, corrected := DecodeBytes(bits)
	if corrected != 0 {
		t.Fatalf("clean stream reported %d corrections", corrected)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip returned %q", got)
	}
}

func TestDecodeBytesCorrectsScatteredFlips(t *testing.T) {
	data := []byte{0x00, 0xFF, 0x5A, 0xC3}
	bits := EncodeBytes(data)

	// One flip per codeword block is the guaranteed-correctable pattern.
	for block := 0; block < len(bits)/CodewordBits; block++ {
		bits[block*CodewordBits+(block%CodewordBits)] ^= 1
	}

	got, corrected := DecodeBytes(bits)
	if corrected != len(bits)/CodewordBits {
		t.Fatalf("corrections = %d, want %d", corrected, len(bits)/CodewordBits)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("recovered % X, want % X", got, data)
	}
}

func TestDecodeBytesPartialBlockPadding(t *testing.T) {
	bits := EncodeBytes([]byte{0xAB})
	// Drop the last 3 bits; the decoder zero-pads and still yields one byte.
	got, _ := DecodeBytes(bits[:len(bits)-3])
	if len(got) != 1 {
		t.Fatalf("got %d bytes, want 1", len(got))
	}
}

func TestParityBit(t *testing.T) {
	withParity := AddParityBit(modem.Bits{1, 0, 1})
	if len(withParity) != 4 || withParity[3] != 0 {
		t.Fatalf("parity of {1,0,1} = %v", withParity)
	}
	if !CheckParityBit(withParity) {
		t.Fatal("clean sequence failed parity check")
	}
	withParity[1] ^= 1
	if CheckParityBit(withParity) {
		t.Fatal("single flip passed parity check")
	}
}
