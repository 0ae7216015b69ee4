// Package directory implements the contact location directory: per
// identifier, a timestamp-ordered list of signed network locations. It is
// ported close to the original chat.dim.dmtp.Contact Java source, adapted
// to Go's RWMutex idiom for protecting shared collections.
package directory

import (
	"encoding/binary"
	"net"
	"time"
)

// ExpiresWithoutPeer bounds how long a location survives with no peer to
// check connection liveness against (86400 seconds).
const ExpiresWithoutPeer = 24 * time.Hour

// Location is one signed network location record for an identifier.
type Location struct {
	Identifier string
	Source     *net.UDPAddr
	Mapped     *net.UDPAddr
	Relayed    *net.UDPAddr
	Timestamp  time.Time
	Signature  []byte
	NAT        string
}

// CanonicalSignData builds the exact byte layout a Location's signature
// covers: source ‖ mapped ‖ relayed ‖ big-endian-uint32(timestamp), with
// an absent source or relayed address omitted. A location with no mapped
// address has no sign data: the result is nil, and such a location never
// verifies.
//
// This resolves an Open Question the original getSignData left as a
// stub (its real body is commented out in chat.dim.dmtp.Contact, returning
// an empty buffer instead) — the commented-out code names exactly this
// concatenation order, so it is restored here rather than invented.
func CanonicalSignData(loc Location) []byte {
	if loc.Mapped == nil {
		return nil
	}
	var out []byte
	if loc.Source != nil {
		out = append(out, addrBytes(loc.Source)...)
	}
	out = append(out, addrBytes(loc.Mapped)...)
	if loc.Relayed != nil {
		out = append(out, addrBytes(loc.Relayed)...)
	}
	ts := make([]byte, 4)
	binary.BigEndian.PutUint32(ts, uint32(loc.Timestamp.Unix()))
	out = append(out, ts...)
	return out
}

func addrBytes(a *net.UDPAddr) []byte {
	ip := a.IP.To4()
	if ip == nil {
		ip = a.IP.To16()
	}
	out := make([]byte, 2+len(ip))
	binary.BigEndian.PutUint16(out[0:2], uint16(a.Port))
	copy(out[2:], ip)
	return out
}

func sameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
