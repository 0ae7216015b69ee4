// Package mtp implements the Message Transfer Protocol: a fragmenting,
// best-effort-retrying datagram layer that carries DMTP command and
// message bodies over UDP. Its header framing uses direct
// binary.BigEndian field packing, scaled to MTP's 24-byte header, and its
// split/assemble and dispatch-loop semantics are grounded on the original
// chat.dim.mtp.protocol.Package/Peer Java sources.
package mtp

import (
	"encoding/binary"
	"fmt"
)

// PacketType is the one-byte packet type field.
type PacketType uint8

const (
	Command         PacketType = 0x01
	CommandRespond  PacketType = 0x02
	Message         PacketType = 0x03
	MessageRespond  PacketType = 0x04
	MessageFragment PacketType = 0x05
)

func (t PacketType) String() string {
	switch t {
	case Command:
		return "Command"
	case CommandRespond:
		return "CommandRespond"
	case Message:
		return "Message"
	case MessageRespond:
		return "MessageRespond"
	case MessageFragment:
		return "MessageFragment"
	default:
		return fmt.Sprintf("PacketType(0x%02x)", uint8(t))
	}
}

// Magic identifies an MTP packet on the wire.
var Magic = [4]byte{'D', 'I', 'M', 0}

// Version is the only header version this package understands.
const Version uint8 = 1

// HeaderSize is the fixed header length: magic(4) + version(1) + type(1) +
// sn(4) + pages(4) + offset(4) + body_len(4) + reserved(2).
const HeaderSize = 24

// MaxBodyLen is the largest body a single packet may carry before
// Create splits it into fragments, chosen so a full datagram
// (header + body) stays under 576 bytes.
const MaxBodyLen = 512

// Header is the fixed 24-byte MTP packet header.
type Header struct {
	Type     PacketType
	SN       uint32
	Pages    uint32
	Offset   uint32
	BodyLen  uint32
	Reserved uint16
}

// Package is one MTP packet: its header plus a body slice view over the
// original buffer.
type Package struct {
	Head Header
	Body []byte
}

// Encode serializes pkg to wire format.
func (pkg Package) Encode() []byte {
	out := make([]byte, HeaderSize+len(pkg.Body))
	copy(out[0:4], Magic[:])
	out[4] = Version
	out[5] = uint8(pkg.Head.Type)
	binary.BigEndian.PutUint32(out[6:10], pkg.Head.SN)
	binary.BigEndian.PutUint32(out[10:14], pkg.Head.Pages)
	binary.BigEndian.PutUint32(out[14:18], pkg.Head.Offset)
	binary.BigEndian.PutUint32(out[18:22], uint32(len(pkg.Body)))
	binary.BigEndian.PutUint16(out[22:24], pkg.Head.Reserved)
	copy(out[HeaderSize:], pkg.Body)
	return out
}

// ParsePackage validates magic, rejects unknown versions, reads the header
// fields and returns a Package whose Body is a slice view over buffer. It
// never panics on malformed input — errors are always returned instead.
func ParsePackage(buffer []byte) (Package, error) {
	if len(buffer) < HeaderSize {
		return Package{}, fmt.Errorf("mtp: packet too short: %d bytes", len(buffer))
	}
	if [4]byte(buffer[0:4]) != Magic {
		return Package{}, fmt.Errorf("mtp: bad magic")
	}
	if buffer[4] != Version {
		return Package{}, fmt.Errorf("mtp: unsupported version %d", buffer[4])
	}
	head := Header{
		Type:     PacketType(buffer[5]),
		SN:       binary.BigEndian.Uint32(buffer[6:10]),
		Pages:    binary.BigEndian.Uint32(buffer[10:14]),
		Offset:   binary.BigEndian.Uint32(buffer[14:18]),
		BodyLen:  binary.BigEndian.Uint32(buffer[18:22]),
		Reserved: binary.BigEndian.Uint16(buffer[22:24]),
	}
	if HeaderSize+int(head.BodyLen) > len(buffer) {
		return Package{}, fmt.Errorf("mtp: body_len %d exceeds buffer", head.BodyLen)
	}
	body := buffer[HeaderSize : HeaderSize+int(head.BodyLen)]
	return Package{Head: head, Body: body}, nil
}
