package stun

import (
	"encoding/binary"
	"fmt"

	"github.com/1ureka/dimnat/internal/tlv"
)

// Message type codes for the binding transaction.
const (
	TypeBindingRequest      uint16 = 0x0001
	TypeBindingResponse     uint16 = 0x0101
	TypeBindingErrorRespone uint16 = 0x0111
	TypeSharedSecretRequest uint16 = 0x0002
)

// HeaderSize is the wire header length for both shapes: type(2) + length(2)
// + a 16-byte id field (either a bare RFC-3489 transaction ID, or the
// RFC-5389 magic cookie followed by a 12-byte transaction ID).
const HeaderSize = 20

// Message is a parsed STUN/TURN message: the fixed header plus its
// attributes. TransactionID always holds 16 bytes; for RFC-5389 messages
// the first 4 are the magic cookie, for RFC-3489 messages all 16 are the
// legacy opaque transaction ID.
type Message struct {
	Type          uint16
	TransactionID [16]byte
	Legacy        bool // set by ParseMessage when the id field lacks the magic cookie; Encode ignores it
	Attributes    []Attribute
}

// NewBindingRequest builds an empty RFC-5389 Binding Request with a random
// transaction ID, ready to have attributes appended before encoding.
func NewBindingRequest(randomTxnID [12]byte) *Message {
	m := &Message{Type: TypeBindingRequest}
	binary.BigEndian.PutUint32(m.TransactionID[0:4], MagicCookie)
	copy(m.TransactionID[4:16], randomTxnID[:])
	return m
}

// Attribute looks up the first attribute of the given type, decoded.
func (m *Message) Attribute(t AttributeType) (any, bool) {
	for _, a := range m.Attributes {
		if a.Type == t {
			val, err := Decode(a, m.TransactionID)
			if err != nil {
				return nil, false
			}
			return val, true
		}
	}
	return nil, false
}

// Add appends an attribute with an already-encoded raw value.
func (m *Message) Add(t AttributeType, raw []byte) {
	m.Attributes = append(m.Attributes, Attribute{Type: t, Raw: raw})
}

// Encode serializes the message to wire format. RFC-5389 messages (the
// default) carry the 4-byte magic cookie at header offset 4; Legacy
// messages carry the bare 16-byte transaction ID there instead, matching
// RFC-3489's header shape.
func (m *Message) Encode() []byte {
	var body []byte
	for _, a := range m.Attributes {
		body = append(body, tlv.EncodeSTUN(uint16(a.Type), a.Raw)...)
	}

	out := make([]byte, HeaderSize+len(body))
	binary.BigEndian.PutUint16(out[0:2], m.Type)
	binary.BigEndian.PutUint16(out[2:4], uint16(len(body)))
	copy(out[4:20], m.TransactionID[:])
	copy(out[20:], body)
	return out
}

// ParseMessage decodes a STUN/TURN message from wire format. A truncated or
// malformed message returns an error; the caller should drop it silently
// rather than propagate the error further. Trailing bytes inside the
// declared length that don't form a complete attribute (a nonzero residual
// from tlv.ParseSTUN) also make the whole message an error.
func ParseMessage(data []byte) (*Message, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("stun: message too short: %d bytes", len(data))
	}
	m := &Message{Type: binary.BigEndian.Uint16(data[0:2])}
	length := int(binary.BigEndian.Uint16(data[2:4]))
	copy(m.TransactionID[:], data[4:20])
	m.Legacy = binary.BigEndian.Uint32(data[4:8]) != MagicCookie

	if len(data) < HeaderSize+length {
		return nil, fmt.Errorf("stun: incomplete message: want %d have %d", HeaderSize+length, len(data))
	}

	fields, residual := tlv.ParseSTUN(tlv.Buffer(data[HeaderSize : HeaderSize+length]))
	if residual != 0 {
		return nil, fmt.Errorf("stun: %d trailing bytes do not form a complete attribute", residual)
	}
	for _, f := range fields {
		raw := make([]byte, len(f.Value))
		copy(raw, f.Value)
		m.Attributes = append(m.Attributes, Attribute{Type: AttributeType(tlv.UInt16(f.Tag)), Raw: raw})
	}
	return m, nil
}
