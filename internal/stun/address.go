package stun

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Address family codes used by MAPPED-ADDRESS and its XOR variant.
const (
	FamilyIPv4 uint8 = 0x01
	FamilyIPv6 uint8 = 0x02
)

// MagicCookie is the fixed RFC-5389 value used to XOR-mask addresses and to
// identify the modern (vs. legacy RFC-3489) header shape.
const MagicCookie uint32 = 0x2112A442

// MappedAddress is the decoded form of MAPPED-ADDRESS / XOR-MAPPED-ADDRESS:
// {reserved(1)=0, family(1), port(2), address(4 or 16)}.
type MappedAddress struct {
	Family uint8
	Port   uint16
	IP     net.IP
}

func (a MappedAddress) String() string {
	return (&net.UDPAddr{IP: a.IP, Port: int(a.Port)}).String()
}

// encodeAddress packs family, port and address into the attribute's raw
// value, regardless of whether the caller wants the XOR'd form — XOR is
// applied (or not) on the already-packed bytes by the caller.
func encodeAddress(addr MappedAddress) []byte {
	if addr.Family == FamilyIPv6 {
		out := make([]byte, 20)
		out[1] = FamilyIPv6
		binary.BigEndian.PutUint16(out[2:4], addr.Port)
		copy(out[4:20], addr.IP.To16())
		return out
	}
	out := make([]byte, 8)
	out[1] = FamilyIPv4
	binary.BigEndian.PutUint16(out[2:4], addr.Port)
	copy(out[4:8], addr.IP.To4())
	return out
}

func decodeAddress(raw []byte) (MappedAddress, error) {
	if len(raw) < 4 {
		return MappedAddress{}, fmt.Errorf("stun: address value too short: %d bytes", len(raw))
	}
	family := raw[1]
	port := binary.BigEndian.Uint16(raw[2:4])
	switch family {
	case FamilyIPv4:
		if len(raw) < 8 {
			return MappedAddress{}, fmt.Errorf("stun: IPv4 address too short: %d bytes", len(raw))
		}
		ip := make(net.IP, 4)
		copy(ip, raw[4:8])
		return MappedAddress{Family: family, Port: port, IP: ip}, nil
	case FamilyIPv6:
		if len(raw) < 20 {
			return MappedAddress{}, fmt.Errorf("stun: IPv6 address too short: %d bytes", len(raw))
		}
		ip := make(net.IP, 16)
		copy(ip, raw[4:20])
		return MappedAddress{Family: family, Port: port, IP: ip}, nil
	default:
		return MappedAddress{}, fmt.Errorf("stun: unsupported address family 0x%02x", family)
	}
}

// xorKey builds the 16-byte key MAGIC_COOKIE‖TRANSACTION_ID used to mask an
// IPv6 address; for IPv4 only the first 4 bytes (the cookie) are used. The
// same key masks and unmasks — XOR is its own inverse.
func xorKey(txnID [16]byte) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint32(key[0:4], MagicCookie)
	copy(key[4:16], txnID[4:16])
	return key
}

// xorAddress applies the XOR-MAPPED-ADDRESS transform to already-packed
// address bytes (family(1)+reserved already written, port+addr follow).
// Calling it twice with the same txnID returns the original bytes.
func xorAddress(raw []byte, txnID [16]byte) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	if len(out) < 4 {
		return out
	}
	port := binary.BigEndian.Uint16(out[2:4])
	xorPort := port ^ uint16(MagicCookie>>16)
	binary.BigEndian.PutUint16(out[2:4], xorPort)

	key := xorKey(txnID)
	for i := 4; i < len(out); i++ {
		out[i] ^= key[i-4]
	}
	return out
}

func decodeMappedAddress(raw []byte, _ [16]byte) (any, error) {
	return decodeAddress(raw)
}

func decodeXorMappedAddress(raw []byte, txnID [16]byte) (any, error) {
	plain := xorAddress(raw, txnID)
	return decodeAddress(plain)
}

// EncodeMappedAddress builds the raw value for a MAPPED-ADDRESS attribute.
func EncodeMappedAddress(addr MappedAddress) []byte {
	return encodeAddress(addr)
}

// EncodeXorMappedAddress builds the raw value for an XOR-MAPPED-ADDRESS
// attribute under the given transaction ID.
func EncodeXorMappedAddress(addr MappedAddress, txnID [16]byte) []byte {
	return xorAddress(encodeAddress(addr), txnID)
}

// DecodeXorMappedAddressValue is exported so internal/turn (whose
// XOR-PEER-ADDRESS and XOR-RELAYED-ADDRESS attributes share this exact
// codec per RFC 5766 §14.3) can reuse it without duplicating the transform.
func DecodeXorMappedAddressValue(raw []byte, txnID [16]byte) (MappedAddress, error) {
	return decodeAddress(xorAddress(raw, txnID))
}

// EncodeXorAddressValue is the encode-side counterpart used by internal/turn.
func EncodeXorAddressValue(addr MappedAddress, txnID [16]byte) []byte {
	return xorAddress(encodeAddress(addr), txnID)
}

func init() {
	Register(AttrMappedAddress, decodeMappedAddress)
	Register(AttrResponseAddress, decodeMappedAddress)
	Register(AttrSourceAddress, decodeMappedAddress)
	Register(AttrChangedAddress, decodeMappedAddress)
	Register(AttrReflectedFrom, decodeMappedAddress)
	Register(AttrXorMappedAddress, decodeXorMappedAddress)
	Register(AttrXorMappedAddress2, decodeXorMappedAddress)
}
