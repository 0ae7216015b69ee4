// Package dmtp implements the DMTP named-field layer carried inside MTP
// packet bodies: command and message framing over internal/tlv's
// DMTP-shaped (1-byte tag, 1-byte length) TLV codec. Grounded on
// chat.dim.dmtp.Contact and chat.dim.dmtp.values.TimestampValue for field
// shapes and the field/command catalogue.
package dmtp

import (
	"github.com/1ureka/dimnat/internal/tlv"
)

// Field tags. CMD is an implementation addition for carrying the command
// name itself over the wire: every command here is framed as a CMD field
// (holding the ASCII command name) followed by the command's own fields,
// since DMTP needs some way to dispatch an arriving Command packet to the
// right handler before its remaining fields make sense.
const (
	TagCMD      uint8 = 0x00
	TagID       uint8 = 0x01
	TagSRC      uint8 = 0x02
	TagMAP      uint8 = 0x03
	TagRLY      uint8 = 0x04
	TagNAT      uint8 = 0x05
	TagTIME     uint8 = 0x06
	TagSIGN     uint8 = 0x07
	TagSENDER   uint8 = 0x08
	TagRECEIVER uint8 = 0x09
	TagCONTENT  uint8 = 0x0A
	TagFILE     uint8 = 0x0B
	TagKEY      uint8 = 0x0C
)

// Field is one decoded named field: its tag plus raw value bytes.
type Field struct {
	Tag   uint8
	Value []byte
}

// ParseFields decodes consecutive DMTP fields out of buf. Trailing bytes
// that don't form a complete field are reported as a residual count
// rather than an error, matching tlv.ParseDMTP's truncation contract.
func ParseFields(buf []byte) ([]Field, int) {
	tlvs, residual := tlv.ParseDMTP(tlv.Buffer(buf))
	fields := make([]Field, 0, len(tlvs))
	for _, t := range tlvs {
		fields = append(fields, Field{Tag: tlv.UInt8(t.Tag), Value: []byte(t.Value)})
	}
	return fields, residual
}

// EncodeFields serializes fields in order.
func EncodeFields(fields []Field) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, tlv.EncodeDMTP(f.Tag, f.Value)...)
	}
	return out
}

// chunkField splits value into fields of the same tag, each at most
// tlv.MaxDMTPValueLen bytes, so a value of any length can be carried
// without overflowing a field's 1-byte length. A nil or empty value still
// produces one (empty) field, matching EncodeFields' usual one-field-per-tag
// shape for the common short-value case.
func chunkField(tag uint8, value []byte) []Field {
	if len(value) <= tlv.MaxDMTPValueLen {
		return []Field{{Tag: tag, Value: value}}
	}
	fields := make([]Field, 0, (len(value)+tlv.MaxDMTPValueLen-1)/tlv.MaxDMTPValueLen)
	for len(value) > 0 {
		n := tlv.MaxDMTPValueLen
		if n > len(value) {
			n = len(value)
		}
		fields = append(fields, Field{Tag: tag, Value: value[:n]})
		value = value[n:]
	}
	return fields
}

// Find returns the first field with the given tag, if any.
func Find(fields []Field, tag uint8) ([]byte, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return nil, false
}

// FindAll concatenates the values of every field with the given tag, in
// the order they appear. Used for fields a sender may have split across
// repeated tags to stay under tlv.MaxDMTPValueLen per field, such as a
// message's CONTENT.
func FindAll(fields []Field, tag uint8) ([]byte, bool) {
	var out []byte
	found := false
	for _, f := range fields {
		if f.Tag == tag {
			out = append(out, f.Value...)
			found = true
		}
	}
	return out, found
}
