// Package fec implements Hamming(7,4) forward error correction: 4 data bits
// become a 7-bit codeword that survives any single bit flip.
//
// Codeword layout is fixed at [p1, p2, d1, p3, d2, d3, d4] with
//
//	p1 = d1 ^ d2 ^ d4
//	p2 = d1 ^ d3 ^ d4
//	p3 = d2 ^ d3 ^ d4
//
// Two or more simultaneous flips produce a syndrome indistinguishable from
// some single flip and decode silently to wrong data. That is inherent to
// Hamming(7,4), not a defect, and callers lean on the packet CRC to catch it.
package fec

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/downlink-simulator/modem"
)

// ErrInvalidLength reports a codec call with the wrong number of bits.
var ErrInvalidLength = errors.New("fec: invalid input length")

// CodewordBits is the block length; DataBits the message length.
const (
	CodewordBits = 7
	DataBits     = 4
)

// Encode maps exactly 4 data bits to a 7-bit codeword.
func Encode(data modem.Bits) (modem.Bits, error) {
	if len(data) != DataBits {
		return nil, fmt.Errorf("%w: want %d data bits, got %d", ErrInvalidLength, DataBits, len(data))
	}
	d1, d2, d3, d4 := data[0]&1, data[1]&1, data[2]&1, data[3]&1
	return modem.Bits{
		d1 ^ d2 ^ d4, // p1
		d1 ^ d3 ^ d4, // p2
		d1,
		d2 ^ d3 ^ d4, // p3
		d2,
		d3,
		d4,
	}, nil
}

// DecodeResult reports a decoded block. Position is the 1-indexed codeword
// position that was flipped, or 0 when no correction was made.
type DecodeResult struct {
	Data      modem.Bits
	Corrected bool
	Position  int
}

// Decode recomputes the three parity bits over the received data positions,
// forms the syndrome 4*s3 + 2*s2 + s1, and flips the indicated bit before
// extracting data. A zero syndrome means a clean block; any value in [1,7]
// corrects exactly one flip.
func Decode(codeword modem.Bits) (DecodeResult, error) {
	if len(codeword) != CodewordBits {
		return DecodeResult{}, fmt.Errorf("%w: want %d codeword bits, got %d", ErrInvalidLength, CodewordBits, len(codeword))
	}

	r := make(modem.Bits, CodewordBits)
	for i, b := range codeword {
		r[i] = b & 1
	}

	s1 := r[0] ^ r[2] ^ r[4] ^ r[6]
	s2 := r[1] ^ r[2] ^ r[5] ^ r[6]
	s3 := r[3] ^ r[4] ^ r[5] ^ r[6]
	syndrome := int(s3)<<2 | int(s2)<<1 | int(s1)

	res := DecodeResult{}
	if syndrome != 0 {
		r[syndrome-1] ^= 1
		res.Corrected = true
		res.Position = syndrome
	}
	res.Data = modem.Bits{r[2], r[4], r[5], r[6]}
	return res, nil
}

// EncodeBytes Hamming-encodes a byte stream nibble by nibble, high nibble
// first: every byte costs 14 bits on the wire (75% overhead).
func EncodeBytes(data []byte) modem.Bits {
	out := make(modem.Bits, 0, len(data)*2*CodewordBits)
	for _, b := range data {
		for _, nibble := range [2]byte{b >> 4, b & 0x0F} {
			cw, _ := Encode(modem.Bits{
				nibble >> 3 & 1,
				nibble >> 2 & 1,
				nibble >> 1 & 1,
				nibble & 1,
			})
			out = append(out, cw...)
		}
	}
	return out
}

// DecodeBytes reverses EncodeBytes, returning the recovered bytes and the
// number of bit corrections applied. A trailing partial block is zero-padded
// before decoding, matching the encoder's byte alignment.
func DecodeBytes(bits modem.Bits) ([]byte, int) {
	if rem := len(bits) % (2 * CodewordBits); rem != 0 {
		padded := make(modem.Bits, len(bits), len(bits)+2*CodewordBits-rem)
		copy(padded, bits)
		bits = append(padded, make(modem.Bits, 2*CodewordBits-rem)...)
	}

	data := make([]byte, 0, len(bits)/(2*CodewordBits))
	corrected := 0
	for off := 0; off+2*CodewordBits <= len(bits); off += 2 * CodewordBits {
		high, _ := Decode(bits[off : off+CodewordBits])
		low, _ := Decode(bits[off+CodewordBits : off+2*CodewordBits])
		if high.Corrected {
			corrected++
		}
		if low.Corrected {
			corrected++
		}
		b := high.Data[0]<<7 | high.Data[1]<<6 | high.Data[2]<<5 | high.Data[3]<<4 |
			low.Data[0]<<3 | low.Data[1]<<2 | low.Data[2]<<1 | low.Data[3]
		data = append(data, b)
	}
	return data, corrected
}

// AddParityBit appends a single even-parity bit: a detection-only code
// useful as a cheap baseline when Hamming's 75% overhead is too steep.
func AddParityBit(data modem.Bits) modem.Bits {
	var parity byte
	for _, b := range data {
		parity ^= b & 1
	}
	out := make(modem.Bits, len(data), len(data)+1)
	copy(out, data)
	return append(out, parity)
}

// CheckParityBit reports whether a parity-terminated sequence has even
// parity overall.
func CheckParityBit(encoded modem.Bits) bool {
	var parity byte
	for _, b := range encoded {
		parity ^= b & 1
	}
	return parity == 0
}
