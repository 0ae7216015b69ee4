package mtp

import (
	"bytes"
	"testing"
)

func TestPackageEncodeDecodeRoundTrip(t *testing.T) {
	pkg := Package{Head: Header{Type: Command, SN: 42, Pages: 1, Offset: 0, BodyLen: 5}, Body: []byte("hello")}
	encoded := pkg.Encode()

	parsed, err := ParsePackage(encoded)
	if err != nil {
		t.Fatalf("ParsePackage: %v", err)
	}
	if parsed.Head.Type != Command || parsed.Head.SN != 42 {
		t.Fatalf("header mismatch: %+v", parsed.Head)
	}
	if !bytes.Equal(parsed.Body, []byte("hello")) {
		t.Fatalf("body mismatch: %q", parsed.Body)
	}
}

func TestParsePackageRejectsBadMagic(t *testing.T) {
	buf := Package{Head: Header{Type: Message}, Body: nil}.Encode()
	buf[0] = 'X'
	if _, err := ParsePackage(buf); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParsePackageRejectsUnknownVersion(t *testing.T) {
	buf := Package{Head: Header{Type: Message}, Body: nil}.Encode()
	buf[4] = 99
	if _, err := ParsePackage(buf); err == nil {
		t.Fatalf("expected error for unsupported version")
	}
}

func TestParsePackageRejectsTruncatedBody(t *testing.T) {
	buf := Package{Head: Header{Type: Message}, Body: []byte("short")}.Encode()
	// Lie about body_len in the header without growing the buffer.
	buf[21] = 100
	if _, err := ParsePackage(buf); err == nil {
		t.Fatalf("expected error for truncated body")
	}
}

func TestParsePackageTooShort(t *testing.T) {
	if _, err := ParsePackage([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for undersized packet")
	}
}
