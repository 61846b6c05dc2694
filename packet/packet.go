// Package packet frames payloads for the downlink and validates what comes
// back out of the demodulator.
//
// Wire format, big-endian throughout:
//
//	offset  size  field
//	0       4     preamble 0xAA 0xAA 0xAA 0xAA
//	4       2     packet_id (u16)
//	6       2     payload_length (u16)
//	8       4     timestamp (f32, unix seconds)
//	12      N     payload
//	12+N    2     crc16 over bytes [4, 12+N)
//
// Fixed overhead is 14 bytes per packet.
package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Preamble is the synchronization pattern opening every packet.
var Preamble = []byte{0xAA, 0xAA, 0xAA, 0xAA}

const (
	preambleLen = 4
	headerLen   = 8 // id + length + timestamp
	trailerLen  = 2 // crc16

	// OverheadBytes is the fixed framing cost per packet.
	OverheadBytes = preambleLen + headerLen + trailerLen

	// MaxPayload is bounded by the u16 payload_length field.
	MaxPayload = math.MaxUint16
)

// Structural parse errors. Malformed packets are an expected channel
// outcome, so these are returned, never panicked.
var (
	ErrTooShort        = errors.New("packet: shorter than minimum frame")
	ErrBadPreamble     = errors.New("packet: preamble mismatch")
	ErrPayloadTooLarge = errors.New("packet: payload exceeds u16 length field")
)

// Packet is a parsed downlink frame. CRCValid and Truncated are flags rather
// than errors: a frame that parses structurally but fails integrity is still
// worth inspecting.
type Packet struct {
	ID            uint16
	PayloadLength uint16 // as declared by the header
	Timestamp     float32
	Payload       []byte // possibly shorter than declared when Truncated
	CRC           uint16 // as carried on the wire
	CRCValid      bool
	Truncated     bool
}

// Create frames payload with the next timestamp taken from the wall clock.
// packetID wraps modulo 65536.
func Create(payload []byte, packetID int) ([]byte, error) {
	return CreateAt(payload, packetID, float64(time.Now().UnixNano())/1e9)
}

// CreateAt frames payload with an explicit timestamp in unix seconds.
func CreateAt(payload []byte, packetID int, timestampSec float64) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	id := uint16(((packetID % 65536) + 65536) % 65536)

	frame := make([]byte, 0, OverheadBytes+len(payload))
	frame = append(frame, Preamble...)
	frame = binary.BigEndian.AppendUint16(frame, id)
	frame = binary.BigEndian.AppendUint16(frame, uint16(len(payload)))
	frame = binary.BigEndian.AppendUint32(frame, math.Float32bits(float32(timestampSec)))
	frame = append(frame, payload...)

	crc := CRC16(frame[preambleLen:])
	frame = binary.BigEndian.AppendUint16(frame, crc)
	return frame, nil
}

// Parse decodes a received byte stream. It fails with ErrTooShort or
// ErrBadPreamble on structural damage; otherwise it returns a Packet whose
// CRCValid field reports integrity. When the buffer is shorter than the
// declared payload length, Parse returns whatever payload is available with
// Truncated set instead of failing.
func Parse(data []byte) (*Packet, error) {
	if len(data) < OverheadBytes {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTooShort, len(data), OverheadBytes)
	}
	if !bytes.Equal(data[:preambleLen], Preamble) {
		return nil, fmt.Errorf("%w: got % X", ErrBadPreamble, data[:preambleLen])
	}

	p := &Packet{
		ID:            binary.BigEndian.Uint16(data[4:6]),
		PayloadLength: binary.BigEndian.Uint16(data[6:8]),
		Timestamp:     math.Float32frombits(binary.BigEndian.Uint32(data[8:12])),
	}

	payloadEnd := preambleLen + headerLen + int(p.PayloadLength)
	if payloadEnd+trailerLen > len(data) {
		// Short buffer: keep what arrived, flag the damage.
		p.Truncated = true
		payloadEnd = len(data) - trailerLen
		if payloadEnd < preambleLen+headerLen {
			payloadEnd = preambleLen + headerLen
		}
	}
	p.Payload = data[preambleLen+headerLen : payloadEnd]

	if payloadEnd+trailerLen <= len(data) {
		p.CRC = binary.BigEndian.Uint16(data[payloadEnd : payloadEnd+trailerLen])
		p.CRCValid = !p.Truncated && CRC16(data[preambleLen:payloadEnd]) == p.CRC
	}
	return p, nil
}

// Validate reports whether data parses with no structural error, no
// truncation, and a matching CRC.
func Validate(data []byte) bool {
	p, err := Parse(data)
	return err == nil && !p.Truncated && p.CRCValid
}

// Overhead returns the framing cost as a percentage of the total frame for a
// given payload size: 14/(14+n)*100.
func Overhead(payloadSize int) float64 {
	if payloadSize < 0 {
		payloadSize = 0
	}
	return float64(OverheadBytes) / float64(OverheadBytes+payloadSize) * 100
}
