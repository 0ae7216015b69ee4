package turn

import (
	"net"
	"testing"
	"time"

	"github.com/1ureka/dimnat/internal/stun"
)

func TestXorPeerAddressSharesStunCodec(t *testing.T) {
	txnID := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	addr := stun.MappedAddress{Family: stun.FamilyIPv4, Port: 4000, IP: net.IPv4(198, 51, 100, 9).To4()}

	raw := EncodeXorPeerAddress(addr, txnID)
	got, err := stun.DecodeXorMappedAddressValue(raw, txnID)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Port != addr.Port || !got.IP.Equal(addr.IP) {
		t.Fatalf("mismatch: got %+v want %+v", got, addr)
	}
}

func TestAllocateResponseCarriesRelayedAddressAndLifetime(t *testing.T) {
	txnID := [16]byte{}
	msg := &stun.Message{Type: TypeAllocateResponse, TransactionID: txnID}

	relayed := stun.MappedAddress{Family: stun.FamilyIPv4, Port: 51820, IP: net.IPv4(192, 0, 2, 55).To4()}
	msg.Add(AttrXorRelayedAddress, EncodeXorRelayedAddress(relayed, txnID))
	msg.Add(AttrLifetime, EncodeLifetime(600*time.Second))

	parsed, err := stun.ParseMessage(msg.Encode())
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	relayedGot, ok := parsed.Attribute(AttrXorRelayedAddress)
	if !ok {
		t.Fatalf("missing XOR-RELAYED-ADDRESS")
	}
	if ma := relayedGot.(stun.MappedAddress); ma.Port != relayed.Port {
		t.Fatalf("relayed port mismatch: got %d want %d", ma.Port, relayed.Port)
	}
	lifetimeGot, ok := parsed.Attribute(AttrLifetime)
	if !ok || lifetimeGot.(time.Duration) != 600*time.Second {
		t.Fatalf("lifetime mismatch: %v ok=%v", lifetimeGot, ok)
	}
}

func TestDataIndicationCarriesRelayedPayload(t *testing.T) {
	txnID := [16]byte{}
	payload := []byte("hello over the relay")
	msg := &stun.Message{Type: TypeDataIndication, TransactionID: txnID}
	msg.Add(AttrData, EncodeData(payload))

	parsed, err := stun.ParseMessage(msg.Encode())
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	got, ok := parsed.Attribute(AttrData)
	if !ok {
		t.Fatalf("missing DATA attribute")
	}
	if string(got.([]byte)) != string(payload) {
		t.Fatalf("payload mismatch: got %q want %q", got, payload)
	}
}
