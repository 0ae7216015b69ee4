package dmtp

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/1ureka/dimnat/internal/stun"
)

// Address is the decoded form of a DMTP address field (SRC, MAP, RLY):
// a STUN MAPPED-ADDRESS-shaped 8-byte (IPv4) or 20-byte (IPv6) structure,
// carried plain — DMTP addresses are never XOR'd, unlike STUN's
// XOR-MAPPED-ADDRESS.
type Address struct {
	IP   net.IP
	Port uint16
}

// EncodeAddress packs addr into a DMTP address field value.
func EncodeAddress(addr Address) []byte {
	family := stun.FamilyIPv4
	if addr.IP.To4() == nil {
		family = stun.FamilyIPv6
	}
	return stun.EncodeMappedAddress(stun.MappedAddress{Family: family, Port: addr.Port, IP: addr.IP})
}

// DecodeAddress unpacks a DMTP address field value.
func DecodeAddress(raw []byte) (Address, error) {
	if len(raw) < 4 {
		return Address{}, fmt.Errorf("dmtp: address field too short: %d bytes", len(raw))
	}
	val, err := stun.Decode(stun.Attribute{Type: stun.AttrMappedAddress, Raw: raw}, [16]byte{})
	if err != nil {
		return Address{}, err
	}
	ma := val.(stun.MappedAddress)
	return Address{IP: ma.IP, Port: ma.Port}, nil
}

// EncodeTimestamp packs t as 4-byte big-endian seconds since the Unix
// epoch.
func EncodeTimestamp(t time.Time) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(t.Unix()))
	return out
}

// DecodeTimestamp unpacks a 4-byte TIME field.
func DecodeTimestamp(raw []byte) (time.Time, error) {
	if len(raw) < 4 {
		return time.Time{}, fmt.Errorf("dmtp: timestamp field too short: %d bytes", len(raw))
	}
	return time.Unix(int64(binary.BigEndian.Uint32(raw)), 0).UTC(), nil
}
