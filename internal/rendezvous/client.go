package rendezvous

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Connect dials the bootstrap server at url and returns the raw
// connection.
func Connect(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("rendezvous: connect: %w", err)
	}
	return conn, nil
}

// Send writes one JSON-encoded message.
func Send(conn *websocket.Conn, msg Message) error {
	return conn.WriteJSON(msg)
}

// Receive reads and decodes the next message.
func Receive(conn *websocket.Conn) (Message, error) {
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ExchangeHello sends a hello announcement and waits for the peer's
// reply: the minimal two-message bootstrap handshake this package
// automates.
func ExchangeHello(conn *websocket.Conn, body []byte) (Message, error) {
	if err := Send(conn, Message{Type: MsgTypeHello, Body: body}); err != nil {
		return Message{}, err
	}
	return Receive(conn)
}
