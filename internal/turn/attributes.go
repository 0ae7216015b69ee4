// Package turn implements the TURN relay attribute layer (RFC 5766 §14) on
// top of internal/stun's message framing and attribute registry. TURN
// reuses STUN's message header and TLV shape wholesale — a TURN Allocate
// or Send indication is just a stun.Message with a different type code and
// a different set of registered attributes, per XorPeerAddressValue's
// grounding in the original chat.dim.turn implementation (it subclasses
// chat.dim.stun's XOR-MAPPED-ADDRESS value rather than reimplementing it).
package turn

import (
	"encoding/binary"
	"time"

	"github.com/1ureka/dimnat/internal/stun"
)

// Message type codes used by the relay allocation and data-forwarding
// transactions.
const (
	TypeAllocateRequest        uint16 = 0x0003
	TypeAllocateResponse       uint16 = 0x0103
	TypeAllocateErrorResponse  uint16 = 0x0113
	TypeRefreshRequest         uint16 = 0x0004
	TypeRefreshResponse        uint16 = 0x0104
	TypeSendIndication         uint16 = 0x0016
	TypeDataIndication         uint16 = 0x0017
	TypeCreatePermissionReqest uint16 = 0x0008
	TypeCreatePermissionResp   uint16 = 0x0108
)

// Attribute codes from RFC 5766 §14.
const (
	AttrChannelNumber      stun.AttributeType = 0x000C
	AttrLifetime           stun.AttributeType = 0x000D
	AttrXorPeerAddress     stun.AttributeType = 0x0012
	AttrData               stun.AttributeType = 0x0013
	AttrXorRelayedAddress  stun.AttributeType = 0x0016
	AttrEvenPort           stun.AttributeType = 0x0018
	AttrRequestedTransport stun.AttributeType = 0x0019
	AttrDontFragment       stun.AttributeType = 0x001A
	AttrReservationToken   stun.AttributeType = 0x0022
)

// RequestedTransportUDP is the only transport protocol this module's
// TURN subset supports (17 = UDP, per RFC 5766 §14.7).
const RequestedTransportUDP = 17

func decodeXorPeerAddress(raw []byte, txnID [16]byte) (any, error) {
	return stun.DecodeXorMappedAddressValue(raw, txnID)
}

func decodeXorRelayedAddress(raw []byte, txnID [16]byte) (any, error) {
	return stun.DecodeXorMappedAddressValue(raw, txnID)
}

// EncodeXorPeerAddress builds the raw value for an XOR-PEER-ADDRESS
// attribute, reusing stun's XOR-MAPPED-ADDRESS codec verbatim.
func EncodeXorPeerAddress(addr stun.MappedAddress, txnID [16]byte) []byte {
	return stun.EncodeXorAddressValue(addr, txnID)
}

// EncodeXorRelayedAddress builds the raw value for an XOR-RELAYED-ADDRESS
// attribute.
func EncodeXorRelayedAddress(addr stun.MappedAddress, txnID [16]byte) []byte {
	return stun.EncodeXorAddressValue(addr, txnID)
}

func decodeLifetime(raw []byte, _ [16]byte) (any, error) {
	if len(raw) < 4 {
		return time.Duration(0), nil
	}
	return time.Duration(binary.BigEndian.Uint32(raw)) * time.Second, nil
}

// EncodeLifetime builds the raw 4-byte value for a LIFETIME attribute.
func EncodeLifetime(d time.Duration) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(d/time.Second))
	return out
}

func decodeData(raw []byte, _ [16]byte) (any, error) {
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// EncodeData builds the raw value for a DATA attribute: the relayed
// payload, carried unmodified.
func EncodeData(payload []byte) []byte {
	out := make([]byte, len(payload))
	copy(out, payload)
	return out
}

func decodeRequestedTransport(raw []byte, _ [16]byte) (any, error) {
	if len(raw) < 1 {
		return uint8(0), nil
	}
	return raw[0], nil
}

// EncodeRequestedTransport builds the raw 4-byte value for a
// REQUESTED-TRANSPORT attribute (protocol number in the high byte, 3
// reserved bytes).
func EncodeRequestedTransport(protocol uint8) []byte {
	return []byte{protocol, 0, 0, 0}
}

func init() {
	stun.Register(AttrXorPeerAddress, decodeXorPeerAddress)
	stun.Register(AttrXorRelayedAddress, decodeXorRelayedAddress)
	stun.Register(AttrLifetime, decodeLifetime)
	stun.Register(AttrData, decodeData)
	stun.Register(AttrRequestedTransport, decodeRequestedTransport)

	stun.RegisterName(AttrChannelNumber, "CHANNEL-NUMBER")
	stun.RegisterName(AttrLifetime, "LIFETIME")
	stun.RegisterName(AttrXorPeerAddress, "XOR-PEER-ADDRESS")
	stun.RegisterName(AttrData, "DATA")
	stun.RegisterName(AttrXorRelayedAddress, "XOR-RELAYED-ADDRESS")
	stun.RegisterName(AttrEvenPort, "EVEN-PORT")
	stun.RegisterName(AttrRequestedTransport, "REQUESTED-TRANSPORT")
	stun.RegisterName(AttrDontFragment, "DONT-FRAGMENT")
	stun.RegisterName(AttrReservationToken, "RESERVATION-TOKEN")
}
