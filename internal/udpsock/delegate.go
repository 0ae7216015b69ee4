package udpsock

import "net"

// ConnectionDelegate is the embedder callback surface for connection
// lifecycle events.
type ConnectionDelegate interface {
	OnConnectionStatusChanged(conn *Connection, old, new Status)
	OnConnectionReceivedData(conn *Connection)
}

// Cargo is one cached received datagram: payload plus its source address,
// the Go analogue of the Java Socket's cached DatagramPacket.
type Cargo struct {
	Payload []byte
	Source  net.Addr
}
