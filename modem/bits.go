// Package modem converts text to bit streams and bit streams to BPSK
// waveforms and back. It is the innermost layer of the downlink chain and is
// purely functional: no state survives a call.
package modem

import "strings"

// Bits is an ordered bit sequence, one element per bit, values 0 or 1.
// A byte stream is represented MSB-first, 8 bits per byte.
type Bits []byte

// Symbols are BPSK symbols, one per bit, values -1 or +1.
type Symbols []float64

// TextToBits UTF-8 encodes text and expands each byte MSB-first.
func TextToBits(text string) Bits {
	return BytesToBits([]byte(text))
}

// BitsToText is the inverse of TextToBits. A sequence that is not a multiple
// of 8 bits is zero-padded before grouping. Invalid UTF-8 decodes with the
// replacement rune rather than failing: garbled payloads are an expected
// channel outcome.
func BitsToText(bits Bits) string {
	return strings.ToValidUTF8(string(BitsToBytes(bits)), "�")
}

// BytesToBits expands each byte into 8 bits, MSB first.
func BytesToBits(data []byte) Bits {
	bits := make(Bits, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (b>>shift)&1)
		}
	}
	return bits
}

// BitsToBytes groups bits MSB-first into bytes, zero-padding a trailing
// partial byte.
func BitsToBytes(bits Bits) []byte {
	if len(bits) == 0 {
		return nil
	}
	out := make([]byte, 0, (len(bits)+7)/8)
	var cur byte
	n := 0
	for _, bit := range bits {
		cur = cur<<1 | (bit & 1)
		n++
		if n == 8 {
			out = append(out, cur)
			cur, n = 0, 0
		}
	}
	if n > 0 {
		out = append(out, cur<<(8-n))
	}
	return out
}

// BitsToSymbols maps bit b to symbol 2b-1: 0 -> -1, 1 -> +1.
func BitsToSymbols(bits Bits) Symbols {
	symbols := make(Symbols, len(bits))
	for i, b := range bits {
		symbols[i] = float64(2*int(b&1) - 1)
	}
	return symbols
}

// SymbolsToBits applies the sign decision: values above zero decode to bit 1,
// everything else (ties included) to bit 0.
func SymbolsToBits(symbols Symbols) Bits {
	bits := make(Bits, len(symbols))
	for i, s := range symbols {
		if s > 0 {
			bits[i] = 1
		}
	}
	return bits
}

// CountBitErrors returns the number of positions at which a and b differ,
// compared over the shorter of the two sequences.
func CountBitErrors(a, b Bits) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	errs := 0
	for i := 0; i < n; i++ {
		if a[i]&1 != b[i]&1 {
			errs++
		}
	}
	return errs
}

// BitErrorRate returns the fraction of differing bits over the compared
// length, or 0 for empty input.
func BitErrorRate(a, b Bits) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	return float64(CountBitErrors(a, b)) / float64(n)
}
