package tlv

import "fmt"

// TLV is one decoded tag-length-value triple. Tag, Length and Value are all
// views over the parsed input buffer — parsing never copies.
type TLV struct {
	Tag    Buffer // raw tag bytes (2 bytes STUN-style, 1 byte DMTP-style)
	Length Buffer // raw length bytes
	Value  Buffer // the value, stripped of any padding
}

// STUN-style frames: 2-byte tag, 2-byte length, value padded to a 4-byte
// boundary with zero bytes. This is the RFC-5389 attribute shape.
const (
	stunTagLen    = 2
	stunLengthLen = 2
)

// DMTP-style frames: 1-byte tag, 1-byte length, value byte-aligned with no
// padding.
const (
	dmtpTagLen    = 1
	dmtpLengthLen = 1
)

// ParseSTUN parses consecutive STUN-shaped TLVs out of buf. It returns every
// well-formed TLV found before the first truncated one, plus the count of
// trailing bytes that could not be parsed (0 if buf was consumed exactly).
// A truncated TLV — one whose length field claims more value bytes than
// remain — terminates parsing without error; unknown tags never abort it.
func ParseSTUN(buf Buffer) ([]TLV, int) {
	return parse(buf, stunTagLen, stunLengthLen, true)
}

// ParseDMTP parses consecutive DMTP-shaped TLVs out of buf (1-byte tag,
// 1-byte length, no padding). Same truncation contract as ParseSTUN.
func ParseDMTP(buf Buffer) ([]TLV, int) {
	return parse(buf, dmtpTagLen, dmtpLengthLen, false)
}

func parse(buf Buffer, tagLen, lengthLen int, padded bool) ([]TLV, int) {
	var out []TLV
	i := 0
	for {
		headerLen := tagLen + lengthLen
		if len(buf)-i < headerLen {
			return out, len(buf) - i
		}
		tag := Slice(buf, i, i+tagLen)
		lengthField := Slice(buf, i+tagLen, i+headerLen)

		var valueLen int
		if lengthLen == 2 {
			valueLen = int(UInt16(lengthField))
		} else {
			valueLen = int(UInt8(lengthField))
		}

		consumed := valueLen
		if padded {
			if pad := (headerLen + valueLen) % 4; pad != 0 {
				consumed += 4 - pad
			}
		}

		if len(buf)-(i+headerLen) < consumed {
			return out, len(buf) - i
		}

		value := Slice(buf, i+headerLen, i+headerLen+valueLen)
		out = append(out, TLV{Tag: tag, Length: lengthField, Value: value})

		i += headerLen + consumed
	}
}

// EncodeSTUN encodes one STUN-shaped attribute: 2-byte tag, 2-byte length,
// value padded to a 4-byte boundary with zeros.
func EncodeSTUN(tag uint16, value []byte) []byte {
	header := 4
	padded := len(value)
	if pad := (header + padded) % 4; pad != 0 {
		padded += 4 - pad
	}
	out := make([]byte, header+padded)
	copy(out[0:2], PutUInt16(tag))
	copy(out[2:4], PutUInt16(uint16(len(value))))
	copy(out[4:4+len(value)], value)
	return out
}

// MaxDMTPValueLen is the largest value a single DMTP-shaped field can carry
// — the 1-byte length field's range. Callers with longer values must split
// them across multiple fields sharing a tag before calling EncodeDMTP.
const MaxDMTPValueLen = 0xFF

// EncodeDMTP encodes one DMTP-shaped field: 1-byte tag, 1-byte length,
// byte-aligned value. Panics if value is longer than MaxDMTPValueLen,
// since silently truncating the length byte would corrupt the frame
// instead of just this field.
func EncodeDMTP(tag uint8, value []byte) []byte {
	if len(value) > MaxDMTPValueLen {
		panic(fmt.Sprintf("tlv: DMTP field value too long: %d bytes", len(value)))
	}
	out := make([]byte, 2+len(value))
	out[0] = tag
	out[1] = uint8(len(value))
	copy(out[2:], value)
	return out
}
