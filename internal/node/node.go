// Package node is the composition root wiring internal/udpsock,
// internal/mtp, internal/directory and internal/dmtp into one symmetric
// peer: a single Node type any process can run,
// regardless of which side dialed first.
package node

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/1ureka/dimnat/internal/directory"
	"github.com/1ureka/dimnat/internal/mtp"
	"github.com/1ureka/dimnat/internal/udpsock"
	"github.com/1ureka/dimnat/internal/util"
)

// HeartbeatInterval is how often the node pings tracked connections and
// purges errored ones.
const HeartbeatInterval = 8 * time.Second

// Node is one DMTP peer: it owns a UDP socket, the MTP dispatch loop, and
// a contact directory, and exposes a small public surface (Start, Stop,
// SendMessage, Login, Call). It has no public method for sending an
// arbitrary command; Login and Call send their own HI and CALL commands.
type Node struct {
	Identifier string

	signer directory.SignatureProvider
	socket *udpsock.Socket
	pool   *mtp.MemPool
	peer   *mtp.Peer
	dir    *directory.Directory

	cancel context.CancelFunc
	wg     sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[string]chan struct{} // identifier -> CALL-answered signal
}

// New binds a UDP socket at local (nil picks an ephemeral port) and wires
// the dispatch loop and directory around it.
func New(identifier string, signer directory.SignatureProvider, local *net.UDPAddr) (*Node, error) {
	socket, err := udpsock.NewSocket(local)
	if err != nil {
		return nil, fmt.Errorf("node: bind socket: %w", err)
	}

	n := &Node{
		Identifier: identifier,
		signer:     signer,
		socket:     socket,
		pool:       mtp.NewMemPool(),
		dir:        directory.NewDirectory(signer),
		pending:    make(map[string]chan struct{}),
	}
	n.peer = mtp.NewPeer(n.pool, n)
	socket.SetDelegate(n)
	return n, nil
}

// LocalAddr returns the UDP address the node is bound to.
func (n *Node) LocalAddr() *net.UDPAddr { return n.socket.LocalAddr() }

// Start launches the socket receive loop, the MTP dispatch loop, the
// arrival bridge between them, and the heartbeat/purge ticker. It returns
// immediately; call Stop (or cancel a parent context before calling Start)
// to shut everything down.
func (n *Node) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	n.wg.Add(3)
	go func() { defer n.wg.Done(); n.socket.Run(ctx) }()
	go func() { defer n.wg.Done(); n.peer.Run(ctx) }()
	go func() { defer n.wg.Done(); n.bridgeArrivals(ctx) }()

	util.StartStatsReporter(ctx)
}

// bridgeArrivals drains the socket's application-payload cache into the
// MTP peer engine with a single-writer loop between the reader goroutine
// and the dispatcher.
func (n *Node) bridgeArrivals(ctx context.Context) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()
	idle := time.NewTicker(5 * time.Millisecond)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.socket.Ping()
			n.socket.Purge()
			n.dir.PurgeAll(socketChecker{n.socket})
		case <-idle.C:
			for {
				cargo, ok := n.socket.Receive()
				if !ok {
					break
				}
				n.peer.Receive(cargo.Payload, cargo.Source, n.socket.LocalAddr())
			}
		}
	}
}

// Stop cancels every goroutine Start launched and closes the socket.
func (n *Node) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	n.socket.Close()
	n.wg.Wait()
}

// socketChecker adapts *udpsock.Socket to directory.ConnectionChecker.
type socketChecker struct{ s *udpsock.Socket }

func (c socketChecker) IsLive(addr *net.UDPAddr) bool {
	status, ok := c.s.Status(addr)
	return ok && status != udpsock.Error
}
