package turn_test

// Cross-validates the relay fallback path against a real TURN server
// implementation, github.com/pion/turn/v4, the same family of library
// ossrs-srs's srs-bench harness vendors for its own TURN interop checks.
// A plain UDP "app peer" on each side exchanges data purely through a
// pion-run relay allocation, the same shape internal/udpsock's Socket
// would see data arrive from if this module's peer were itself the relay
// client instead of handling its own STUN/TURN attributes directly.

import (
	"net"
	"testing"
	"time"

	pionturn "github.com/pion/turn/v4"
)

func TestPionTurnServerRelaysDataBetweenTwoUDPPeers(t *testing.T) {
	serverConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen server conn: %v", err)
	}
	defer serverConn.Close()

	const realm = "dimnat.test"
	const username = "node"
	const password = "s3cret"

	server, err := pionturn.NewServer(pionturn.ServerConfig{
		Realm: realm,
		AuthHandler: func(u, r string, srcAddr net.Addr) ([]byte, bool) {
			if u != username {
				return nil, false
			}
			return pionturn.GenerateAuthKey(u, r, password), true
		},
		PacketConnConfigs: []pionturn.PacketConnConfig{
			{
				PacketConn: serverConn,
				RelayAddressGenerator: &pionturn.RelayAddressGeneratorStatic{
					RelayAddress: net.ParseIP("127.0.0.1"),
					Address:      "127.0.0.1",
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("pionturn.NewServer: %v", err)
	}
	defer server.Close()

	clientConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen client conn: %v", err)
	}

	client, err := pionturn.NewClient(&pionturn.ClientConfig{
		STUNServerAddr: serverConn.LocalAddr().String(),
		TURNServerAddr: serverConn.LocalAddr().String(),
		Conn:           clientConn,
		Username:       username,
		Password:       password,
		Realm:          realm,
	})
	if err != nil {
		t.Fatalf("pionturn.NewClient: %v", err)
	}
	defer client.Close()

	if err := client.Listen(); err != nil {
		t.Fatalf("client.Listen: %v", err)
	}

	relayConn, err := client.Allocate()
	if err != nil {
		t.Fatalf("client.Allocate: %v", err)
	}
	defer relayConn.Close()

	peerConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen peer conn: %v", err)
	}
	defer peerConn.Close()

	deadline := time.Now().Add(5 * time.Second)
	relayConn.SetDeadline(deadline)
	peerConn.SetDeadline(deadline)

	outbound := []byte("dmtp relay payload")
	if _, err := relayConn.WriteTo(outbound, peerConn.LocalAddr()); err != nil {
		t.Fatalf("relayConn.WriteTo: %v", err)
	}

	buf := make([]byte, 1500)
	n, from, err := peerConn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("peerConn.ReadFrom: %v", err)
	}
	if string(buf[:n]) != string(outbound) {
		t.Fatalf("peer received %q, want %q", buf[:n], outbound)
	}
	if from.String() != relayConn.LocalAddr().String() {
		t.Fatalf("peer saw source %s, want the relayed address %s", from, relayConn.LocalAddr())
	}

	reply := []byte("dmtp relay reply")
	if _, err := peerConn.WriteTo(reply, relayConn.LocalAddr()); err != nil {
		t.Fatalf("peerConn.WriteTo: %v", err)
	}

	n, _, err = relayConn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("relayConn.ReadFrom: %v", err)
	}
	if string(buf[:n]) != string(reply) {
		t.Fatalf("client received %q through the relay, want %q", buf[:n], reply)
	}
}
