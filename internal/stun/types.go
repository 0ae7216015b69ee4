// Package stun implements the STUN/TURN wire codec: message header framing
// (both the legacy RFC-3489 shape and the RFC-5389 magic-cookie shape) and a
// process-wide attribute registry mapping 16-bit attribute codes to value
// decoders.
package stun

import "fmt"

// AttributeType is a 16-bit STUN/TURN attribute code.
//
// Codes in [0x0000, 0x7FFF] are comprehension-required; codes in
// [0x8000, 0xFFFF] are comprehension-optional. An unrecognized code in
// either range decodes to its raw bytes — it never fails parsing.
type AttributeType uint16

const (
	AttrMappedAddress     AttributeType = 0x0001
	AttrResponseAddress   AttributeType = 0x0002
	AttrChangeRequest     AttributeType = 0x0003
	AttrSourceAddress     AttributeType = 0x0004
	AttrChangedAddress    AttributeType = 0x0005
	AttrUsername          AttributeType = 0x0006
	AttrMessageIntegrity  AttributeType = 0x0008
	AttrErrorCode         AttributeType = 0x0009
	AttrUnknownAttributes AttributeType = 0x000A
	AttrReflectedFrom     AttributeType = 0x000B
	AttrRealm             AttributeType = 0x0014
	AttrNonce             AttributeType = 0x0015
	AttrXorMappedAddress  AttributeType = 0x0020
	AttrXorMappedAddress2 AttributeType = 0x8020 // pre-RFC5389 draft code, same shape
	AttrSoftware          AttributeType = 0x8022
	AttrAlternateServer   AttributeType = 0x8023
	AttrFingerprint       AttributeType = 0x8028
)

// ComprehensionRequired reports whether unknown implementations of this
// attribute type must reject the message rather than ignore it.
func (t AttributeType) ComprehensionRequired() bool {
	return t < 0x8000
}

func (t AttributeType) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Attribute-0x%04X", uint16(t))
}

var names = map[AttributeType]string{
	AttrMappedAddress:     "MAPPED-ADDRESS",
	AttrResponseAddress:   "RESPONSE-ADDRESS",
	AttrChangeRequest:     "CHANGE-REQUEST",
	AttrSourceAddress:     "SOURCE-ADDRESS",
	AttrChangedAddress:    "CHANGED-ADDRESS",
	AttrUsername:          "USERNAME",
	AttrMessageIntegrity:  "MESSAGE-INTEGRITY",
	AttrErrorCode:         "ERROR-CODE",
	AttrUnknownAttributes: "UNKNOWN-ATTRIBUTES",
	AttrReflectedFrom:     "REFLECTED-FROM",
	AttrRealm:             "REALM",
	AttrNonce:             "NONCE",
	AttrXorMappedAddress:  "XOR-MAPPED-ADDRESS",
	AttrXorMappedAddress2: "XOR-MAPPED-ADDRESS",
	AttrSoftware:          "SOFTWARE",
	AttrAlternateServer:   "ALTERNATE-SERVER",
	AttrFingerprint:       "FINGERPRINT",
}

// RegisterName lets other packages in this module (namely internal/turn)
// extend the human-readable name table for attribute codes they own.
func RegisterName(t AttributeType, name string) {
	names[t] = name
}

// Attribute is one decoded STUN/TURN attribute: its type code plus the raw
// value bytes (already stripped of 4-byte padding).
type Attribute struct {
	Type AttributeType
	Raw  []byte
}

// Decoder turns an attribute's raw value into a typed Go value. Decoders
// must be pure functions of their input — the registry never mutates after
// startup, so a decoder may be called concurrently from many goroutines.
// txnID is the owning message's transaction ID, needed by the XOR-* family.
type Decoder func(raw []byte, txnID [16]byte) (any, error)

var registry = map[AttributeType]Decoder{}

// Register installs a decoder for the given attribute type. It must only be
// called from package init() — the registry is write-once by contract; it
// is not goroutine-safe against concurrent Decode calls.
func Register(t AttributeType, d Decoder) {
	registry[t] = d
}

// Decode looks up attr's decoder and runs it. Attributes with no registered
// decoder are returned as their raw bytes — unknown attribute codes never
// fail decoding.
func Decode(attr Attribute, txnID [16]byte) (any, error) {
	d, ok := registry[attr.Type]
	if !ok {
		return attr.Raw, nil
	}
	return d(attr.Raw, txnID)
}
