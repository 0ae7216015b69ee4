package stun

import (
	"bytes"
	"net"
	"testing"
)

func TestBindingRequestRoundTrip(t *testing.T) {
	req := NewBindingRequest([12]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	req.Add(AttrSoftware, []byte("dimnat-test"))

	encoded := req.Encode()
	parsed, err := ParseMessage(encoded)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if parsed.Type != TypeBindingRequest {
		t.Fatalf("type mismatch: got 0x%04x", parsed.Type)
	}
	if parsed.Legacy {
		t.Fatalf("expected modern (non-legacy) header shape")
	}
	if parsed.TransactionID != req.TransactionID {
		t.Fatalf("transaction ID mismatch")
	}
	sw, ok := parsed.Attribute(AttrSoftware)
	if !ok || sw.(string) != "dimnat-test" {
		t.Fatalf("SOFTWARE attribute mismatch: %v ok=%v", sw, ok)
	}
}

func TestBindingResponseXorMappedAddressRoundTrip(t *testing.T) {
	req := NewBindingRequest([12]byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9})

	resp := &Message{Type: TypeBindingResponse, TransactionID: req.TransactionID}
	addr := MappedAddress{Family: FamilyIPv4, Port: 54321, IP: net.IPv4(203, 0, 113, 7).To4()}
	resp.Add(AttrXorMappedAddress, EncodeXorMappedAddress(addr, resp.TransactionID))

	parsed, err := ParseMessage(resp.Encode())
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := parsed.Attribute(AttrXorMappedAddress)
	if !ok {
		t.Fatalf("missing XOR-MAPPED-ADDRESS")
	}
	ma := got.(MappedAddress)
	if ma.Port != addr.Port || !ma.IP.Equal(addr.IP) {
		t.Fatalf("address mismatch: got %+v want %+v", ma, addr)
	}
}

func TestParseMessageDetectsLegacyHeader(t *testing.T) {
	// RFC-3489 shape: no magic cookie, a bare 16-byte transaction ID.
	raw := make([]byte, HeaderSize)
	raw[0], raw[1] = 0x00, 0x01
	copy(raw[4:20], bytes.Repeat([]byte{0x42}, 16))

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if !parsed.Legacy {
		t.Fatalf("expected legacy header shape to be detected")
	}
}

func TestParseMessageTooShort(t *testing.T) {
	if _, err := ParseMessage([]byte{0x00, 0x01}); err == nil {
		t.Fatalf("expected error for undersized message")
	}
}

func TestParseMessageUnknownAttributeDoesNotFail(t *testing.T) {
	req := NewBindingRequest([12]byte{})
	req.Add(AttributeType(0xFFF0), []byte("whatever"))
	parsed, err := ParseMessage(req.Encode())
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if len(parsed.Attributes) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(parsed.Attributes))
	}
}
