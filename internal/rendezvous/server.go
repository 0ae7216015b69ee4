package rendezvous

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is the bootstrap-side WebSocket listener: it accepts exactly one
// client per session, gated by a short code derived from a UUID.
type Server struct {
	sessionID uuid.UUID
	code      string
	listener  net.Listener
	connCh    chan *websocket.Conn
}

// NewServer mints a fresh session UUID and its human-readable short code
// (the first 4 hex digits), derived rather than independently randomized.
func NewServer() *Server {
	id := uuid.New()
	return &Server{
		sessionID: id,
		code:      id.String()[:4],
		connCh:    make(chan *websocket.Conn, 1),
	}
}

// Code returns the short code a peer must supply to connect.
func (s *Server) Code() string { return s.code }

// Start begins listening on a random port and returns it.
func (s *Server) Start() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("rendezvous: listen: %w", err)
	}
	s.listener = listener
	port := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	go func() {
		_ = http.Serve(listener, mux)
	}()
	return port, nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("code") != s.code {
		http.Error(w, "invalid code", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	select {
	case s.connCh <- conn:
	default:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "already connected"))
		conn.Close()
	}
}

// WaitForPeer blocks until a peer connects or ctx is cancelled.
func (s *Server) WaitForPeer(ctx context.Context) (*websocket.Conn, error) {
	select {
	case conn := <-s.connCh:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts down the listener, rejecting new connections.
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
}
