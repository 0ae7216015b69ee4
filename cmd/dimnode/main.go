// Dimnode — a DMTP peer node.
//
// It binds a UDP socket, discovers its reflexive address via STUN, then
// exchanges a HI location announcement with one other node through a
// rendezvous server (see cmd/rendezvous). Once both sides know each
// other's location, it can exchange DMTP messages directly over UDP —
// the NAT-traversal HI/SIGN handshake, minus the PKI this implementation
// leaves to a pre-shared demo secret (-secret).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/1ureka/dimnat/internal/config"
	"github.com/1ureka/dimnat/internal/dmtp"
	"github.com/1ureka/dimnat/internal/keys"
	"github.com/1ureka/dimnat/internal/node"
	"github.com/1ureka/dimnat/internal/rendezvous"
	"github.com/1ureka/dimnat/internal/stun"
	"github.com/1ureka/dimnat/internal/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	id := flag.String("id", "", "this node's DMTP identifier")
	listen := flag.String("listen", ":0", "local UDP address to bind")
	stunServer := flag.String("stun", "stun.l.google.com:19302", "STUN server for reflexive address discovery")
	rendezvousURL := flag.String("rendezvous", "", "rendezvous server WebSocket URL (ws://host:port/ws)")
	rendezvousCode := flag.String("code", "", "rendezvous server short code")
	secret := flag.String("secret", "", "pre-shared demo signing secret, same on both nodes")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		util.EnableDebug()
	}
	cfg := config.Config{
		Role:           config.RoleNode,
		Identifier:     *id,
		ListenAddr:     *listen,
		STUNServer:     *stunServer,
		RendezvousURL:  *rendezvousURL,
		RendezvousCode: *rendezvousCode,
	}
	if cfg.Identifier == "" || cfg.RendezvousURL == "" || cfg.RendezvousCode == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: dimnode -id=<name> -rendezvous=<ws url> -code=<code> -secret=<shared secret>")
		os.Exit(1)
	}

	signer, err := keys.GenerateFromSeed([]byte(*secret))
	if err != nil {
		util.LogError("deriving signing key: %v", err)
		os.Exit(1)
	}

	localAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		util.LogError("resolving -listen: %v", err)
		os.Exit(1)
	}
	n, err := node.New(cfg.Identifier, signer, localAddr)
	if err != nil {
		util.LogError("starting node: %v", err)
		os.Exit(1)
	}
	n.Start(ctx)
	defer n.Stop()

	pterm.Info.Printfln("node %q listening on %s", cfg.Identifier, n.LocalAddr())

	if err := bootstrap(ctx, n, cfg, signer); err != nil {
		util.LogError("bootstrap: %v", err)
		os.Exit(1)
	}
	pterm.Success.Println("peer location exchanged, ready to send messages")

	repl(ctx, n)
}

// bootstrap discovers this node's reflexive address, dials the
// rendezvous server, and trades HI announcements with whichever other
// node connects to the same code.
func bootstrap(ctx context.Context, n *node.Node, cfg config.Config, signer *keys.KeyPair) error {
	discoverCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	result, err := stun.Discover(discoverCtx, cfg.STUNServer)
	if err != nil {
		return fmt.Errorf("stun discovery: %w", err)
	}

	now := time.Now()
	src := n.LocalAddr()
	mapped := &net.UDPAddr{IP: result.MappedAddress.IP, Port: int(result.MappedAddress.Port)}

	sign := signer.Sign(signData(src, mapped, now))
	body := dmtp.HI(n.Identifier,
		&dmtp.Address{IP: src.IP, Port: uint16(src.Port)},
		&dmtp.Address{IP: mapped.IP, Port: uint16(mapped.Port)},
		nil, sign, "", dmtp.EncodeTimestamp(now))

	url := fmt.Sprintf("%s?code=%s", cfg.RendezvousURL, cfg.RendezvousCode)
	conn, err := rendezvous.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("connecting to rendezvous server: %w", err)
	}
	defer conn.Close()

	reply, err := rendezvous.ExchangeHello(conn, body)
	if err != nil {
		return fmt.Errorf("exchanging hello: %w", err)
	}

	cmd, err := dmtp.ParseCommand(reply.Body)
	if err != nil || cmd.Name != dmtp.CmdHI {
		return fmt.Errorf("rendezvous: peer did not send a HI announcement")
	}
	peerMapRaw, ok := dmtp.Find(cmd.Fields, dmtp.TagMAP)
	if !ok {
		return fmt.Errorf("rendezvous: peer HI carries no MAP address")
	}
	peerMapped, err := dmtp.DecodeAddress(peerMapRaw)
	if err != nil {
		return err
	}
	peerAddr := &net.UDPAddr{IP: peerMapped.IP, Port: int(peerMapped.Port)}

	if !n.OnReceivedCommand(reply.Body, peerAddr, n.LocalAddr()) {
		return fmt.Errorf("rendezvous: rejected peer's HI announcement (bad signature?)")
	}
	return nil
}

// signData mirrors directory.CanonicalSignData's layout for a location
// with no relayed address, since cmd/dimnode doesn't depend on
// internal/directory directly for this one call.
func signData(src, mapped *net.UDPAddr, ts time.Time) []byte {
	out := append([]byte{}, addrBytes(src)...)
	out = append(out, addrBytes(mapped)...)
	tsBytes := dmtp.EncodeTimestamp(ts)
	return append(out, tsBytes...)
}

func addrBytes(a *net.UDPAddr) []byte {
	ip := a.IP.To4()
	if ip == nil {
		ip = a.IP.To16()
	}
	out := make([]byte, 2+len(ip))
	out[0] = byte(a.Port >> 8)
	out[1] = byte(a.Port)
	copy(out[2:], ip)
	return out
}

// repl lets an operator send messages to the bootstrapped peer from the
// terminal: "<identifier> <message text>" per line.
func repl(ctx context.Context, n *node.Node) {
	scanner := bufio.NewScanner(os.Stdin)
	pterm.Info.Println(`type "<identifier> <message>" to send, Ctrl+C to quit`)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			pterm.Warning.Println("expected: <identifier> <message>")
			continue
		}
		if _, err := n.SendMessage(parts[0], []byte(parts[1])); err != nil {
			pterm.Warning.Printfln("send failed: %v", err)
		}
	}
}
