package udpsock

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/1ureka/dimnat/internal/util"
)

// MaxCacheSpaces bounds the received-datagram FIFO cache; beyond this the
// oldest entry is dropped to make room for the newest, sized the same way
// the original Java Socket documents: ~576 bytes per UDP datagram times
// 2,000,000 entries is about 1 GiB.
const MaxCacheSpaces = 1024 * 1024 * 2

// BufferSize is the receive buffer used for each ReadFromUDP call.
const BufferSize = 2048

// ReadTimeout is the short blocking timeout the receive loop uses so it
// can observe socket closure promptly (~2 ms).
const ReadTimeout = 2 * time.Millisecond

var pingPayload = []byte("PING")
var pongPayload = []byte("PONG")

// Socket owns one UDP connection, its tracked peer connections, and the
// bounded FIFO cache of received application payloads. It is ported close
// to the original chat.dim.udp.Socket, adapted to Go's context-driven
// goroutine lifecycle (sync.Once cleanup, select on ctx.Done()).
type Socket struct {
	local *net.UDPAddr
	conn  *net.UDPConn

	delegateMu sync.RWMutex
	delegate   ConnectionDelegate

	connMu      sync.RWMutex
	connections map[string]*Connection

	cargoMu sync.Mutex
	cargoes []Cargo

	closeOnce sync.Once
}

// NewSocket binds a UDP socket at local (nil picks an ephemeral port).
func NewSocket(local *net.UDPAddr) (*Socket, error) {
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, err
	}
	return &Socket{
		local:       conn.LocalAddr().(*net.UDPAddr),
		conn:        conn,
		connections: make(map[string]*Connection),
	}, nil
}

// SetDelegate installs (or clears, with nil) the connection delegate.
// Go has no weak-reference primitive suitable for avoiding a retain
// cycle here, so this is a plain nil-able field the embedder can clear
// itself on teardown, rather than a strong reference the socket would
// otherwise keep alive indefinitely.
func (s *Socket) SetDelegate(d ConnectionDelegate) {
	s.delegateMu.Lock()
	defer s.delegateMu.Unlock()
	s.delegate = d
}

func (s *Socket) getDelegate() ConnectionDelegate {
	s.delegateMu.RLock()
	defer s.delegateMu.RUnlock()
	return s.delegate
}

// LocalAddr returns the bound local address.
func (s *Socket) LocalAddr() *net.UDPAddr { return s.local }

// Connect registers remoteAddress for heartbeat tracking, creating a new
// Connection on first sight. It is a no-op if already connected.
func (s *Socket) Connect(remote net.Addr) *Connection {
	key := remote.String()
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if c, ok := s.connections[key]; ok {
		return c
	}
	c := &Connection{Remote: remote, Local: s.local}
	s.connections[key] = c
	return c
}

// Disconnect removes remote from heartbeat tracking.
func (s *Socket) Disconnect(remote net.Addr) bool {
	key := remote.String()
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if _, ok := s.connections[key]; ok {
		delete(s.connections, key)
		return true
	}
	return false
}

// GetConnection looks up the tracked connection for remote, if any.
func (s *Socket) GetConnection(remote net.Addr) *Connection {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.connections[remote.String()]
}

// Status looks up remote's tracked connection and computes its current
// status atomically with the lookup, so the read can't race against a
// concurrent updateSentTime/updateReceivedTime on the same connection.
func (s *Socket) Status(remote net.Addr) (Status, bool) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	conn, ok := s.connections[remote.String()]
	if !ok {
		return Default, false
	}
	return ComputeStatus(conn, time.Now()), true
}

// Send writes data to remote over the OS socket, then updates the
// connection's last-sent timestamp and fires a status-change callback if
// the computed status differs from before the send.
func (s *Socket) Send(data []byte, remote *net.UDPAddr) int {
	n, err := s.conn.WriteToUDP(data, remote)
	if err != nil {
		util.LogError("udpsock: send to %s failed: %v", remote, err)
		return -1
	}
	s.updateSentTime(remote)
	return n
}

func (s *Socket) updateSentTime(remote net.Addr) {
	s.connMu.Lock()
	conn, ok := s.connections[remote.String()]
	if !ok {
		s.connMu.Unlock()
		return
	}
	now := time.Now()
	old := ComputeStatus(conn, now)
	conn.LastSentAt = now
	newStatus := ComputeStatus(conn, now)
	s.connMu.Unlock()
	if old != newStatus {
		if d := s.getDelegate(); d != nil {
			d.OnConnectionStatusChanged(conn, old, newStatus)
		}
	}
}

func (s *Socket) updateReceivedTime(remote net.Addr) {
	s.connMu.Lock()
	conn, ok := s.connections[remote.String()]
	if !ok {
		s.connMu.Unlock()
		return
	}
	now := time.Now()
	old := ComputeStatus(conn, now)
	conn.LastReceived = now
	newStatus := ComputeStatus(conn, now)
	s.connMu.Unlock()
	if old != newStatus {
		if d := s.getDelegate(); d != nil {
			d.OnConnectionStatusChanged(conn, old, newStatus)
		}
	}
}

// Receive pops the oldest cached application payload, or returns false if
// the cache is empty. Heartbeats never reach this cache — they're
// intercepted in the receive loop.
func (s *Socket) Receive() (Cargo, bool) {
	s.cargoMu.Lock()
	defer s.cargoMu.Unlock()
	if len(s.cargoes) == 0 {
		return Cargo{}, false
	}
	c := s.cargoes[0]
	s.cargoes = s.cargoes[1:]
	return c, true
}

func (s *Socket) cache(c Cargo) {
	s.cargoMu.Lock()
	if len(s.cargoes) >= MaxCacheSpaces {
		s.cargoes = s.cargoes[1:]
	}
	s.cargoes = append(s.cargoes, c)
	s.cargoMu.Unlock()

	if d := s.getDelegate(); d != nil {
		if conn := s.GetConnection(c.Source); conn != nil {
			d.OnConnectionReceivedData(conn)
		}
	}
}

// Run executes the receive loop until ctx is cancelled or the socket is
// closed. It should run in its own goroutine, a single-reader loop on the
// receive side.
func (s *Socket) Run(ctx context.Context) {
	buf := make([]byte, BufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return // socket closed or unrecoverable error
		}
		s.updateReceivedTime(from)

		if n == 4 && isHeartbeat(buf[:4]) {
			if buf[1] == 'I' {
				s.Send(pongPayload, from)
			}
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		s.cache(Cargo{Payload: payload, Source: from})
	}
}

func isHeartbeat(b []byte) bool {
	return (b[0] == 'P' && b[2] == 'N' && b[3] == 'G') && (b[1] == 'I' || b[1] == 'O')
}

// Ping sends a heartbeat to every connection currently in Default,
// Connecting or Expired status.
func (s *Socket) Ping() {
	now := time.Now()
	s.connMu.RLock()
	var targets []*net.UDPAddr
	for _, c := range s.connections {
		switch ComputeStatus(c, now) {
		case Default, Connecting, Expired:
			if ua, ok := c.Remote.(*net.UDPAddr); ok {
				targets = append(targets, ua)
			}
		}
	}
	s.connMu.RUnlock()

	for _, addr := range targets {
		s.Send(pingPayload, addr)
	}
}

// Purge removes every connection currently in Error status.
func (s *Socket) Purge() {
	now := time.Now()
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for key, c := range s.connections {
		if ComputeStatus(c, now) == Error {
			delete(s.connections, key)
		}
	}
}

// Close shuts down the underlying OS socket, causing Run's blocking read
// to fail and return. Safe to call more than once.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}
