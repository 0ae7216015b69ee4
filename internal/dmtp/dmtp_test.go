package dmtp

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestAddressRoundTripIPv4(t *testing.T) {
	addr := Address{IP: net.IPv4(198, 51, 100, 20).To4(), Port: 7000}
	raw := EncodeAddress(addr)
	got, err := DecodeAddress(raw)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if got.Port != addr.Port || !got.IP.Equal(addr.IP) {
		t.Fatalf("mismatch: got %+v want %+v", got, addr)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second).UTC()
	raw := EncodeTimestamp(now)
	got, err := DecodeTimestamp(raw)
	if err != nil {
		t.Fatalf("DecodeTimestamp: %v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("mismatch: got %v want %v", got, now)
	}
}

func TestHICommandRoundTrip(t *testing.T) {
	src := Address{IP: net.IPv4(1, 2, 3, 4).To4(), Port: 1111}
	ts := EncodeTimestamp(time.Now())
	body := HI("alice", &src, nil, nil, []byte("sig"), "", ts)

	cmd, err := ParseCommand(body)
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if cmd.Name != CmdHI {
		t.Fatalf("expected HI, got %q", cmd.Name)
	}
	id, ok := Find(cmd.Fields, TagID)
	if !ok || string(id) != "alice" {
		t.Fatalf("missing/wrong ID field: %q ok=%v", id, ok)
	}
	srcRaw, ok := Find(cmd.Fields, TagSRC)
	if !ok {
		t.Fatalf("missing SRC field")
	}
	gotSrc, err := DecodeAddress(srcRaw)
	if err != nil || gotSrc.Port != src.Port {
		t.Fatalf("SRC mismatch: %+v err=%v", gotSrc, err)
	}
}

func TestParseCommandRejectsMissingCMD(t *testing.T) {
	body := EncodeFields([]Field{{Tag: TagID, Value: []byte("x")}})
	if _, err := ParseCommand(body); err == nil {
		t.Fatalf("expected error when body has no CMD field")
	}
}

func TestCALLCommandRoundTrip(t *testing.T) {
	body := CALL("bob")
	cmd, err := ParseCommand(body)
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if cmd.Name != CmdCALL {
		t.Fatalf("expected CALL, got %q", cmd.Name)
	}
	id, _ := Find(cmd.Fields, TagID)
	if string(id) != "bob" {
		t.Fatalf("expected bob, got %q", id)
	}
}

func TestMessageRoundTrip(t *testing.T) {
	m := Message{
		Sender:    "alice",
		Receiver:  "bob",
		Timestamp: EncodeTimestamp(time.Now()),
		Content:   []byte("hello there"),
		Sign:      []byte("sig"),
	}
	parsed, err := ParseMessage(m.Encode())
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if parsed.Sender != m.Sender || parsed.Receiver != m.Receiver {
		t.Fatalf("mismatch: %+v", parsed)
	}
	if !bytes.Equal(parsed.Content, m.Content) {
		t.Fatalf("content mismatch: %q", parsed.Content)
	}
	if !bytes.Equal(parsed.Sign, m.Sign) {
		t.Fatalf("sign mismatch: %q", parsed.Sign)
	}
}

func TestMessageRoundTripContentLongerThanOneField(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 300)
	m := Message{
		Sender:    "alice",
		Receiver:  "bob",
		Timestamp: EncodeTimestamp(time.Now()),
		Content:   content,
	}
	encoded := m.Encode()

	fields, residual := ParseFields(encoded)
	if residual != 0 {
		t.Fatalf("unexpected residual: %d", residual)
	}
	contentFields := 0
	for _, f := range fields {
		if f.Tag == TagCONTENT {
			contentFields++
		}
	}
	if contentFields < 2 {
		t.Fatalf("expected content split across multiple CONTENT fields, got %d", contentFields)
	}

	parsed, err := ParseMessage(encoded)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if !bytes.Equal(parsed.Content, content) {
		t.Fatalf("content mismatch after reassembly: got %d bytes, want %d", len(parsed.Content), len(content))
	}
}

func TestBYECommandRoundTrip(t *testing.T) {
	src := Address{IP: net.IPv4(5, 6, 7, 8).To4(), Port: 2222}
	mapped := Address{IP: net.IPv4(9, 9, 9, 9).To4(), Port: 3333}
	ts := EncodeTimestamp(time.Now())
	body := BYE("carol", src, mapped, ts, []byte("sig"))

	cmd, err := ParseCommand(body)
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if cmd.Name != CmdBYE {
		t.Fatalf("expected BYE, got %q", cmd.Name)
	}
	mapRaw, ok := Find(cmd.Fields, TagMAP)
	if !ok {
		t.Fatalf("missing MAP field")
	}
	gotMap, err := DecodeAddress(mapRaw)
	if err != nil || gotMap.Port != mapped.Port {
		t.Fatalf("MAP mismatch: %+v err=%v", gotMap, err)
	}
}
