// Package udpsock tracks UDP connection liveness and runs the receive
// loop backing the MTP peer engine. It is ported close to the original
// chat.dim.udp.Socket/Connection Java sources, adapted to Go's
// context-driven goroutine lifecycle.
package udpsock

import (
	"net"
	"time"
)

// Status is the pure-function-derived liveness state of a Connection.
type Status uint8

const (
	Default Status = iota
	Connecting
	Connected
	Maintaining
	Expired
	Error
)

func (s Status) String() string {
	switch s {
	case Default:
		return "Default"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Maintaining:
		return "Maintaining"
	case Expired:
		return "Expired"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Timing constants governing the connection liveness state machine.
const (
	Expires     = 28 * time.Second
	LongExpires = 120 * time.Second
)

// Connection tracks one remote peer's last-sent/last-received timestamps.
// Status is never stored — it is always recomputed from these two fields
// and the current time, a pure function of now and the connection.
type Connection struct {
	Remote       net.Addr
	Local        net.Addr
	LastSentAt   time.Time
	LastReceived time.Time
}

// ComputeStatus derives conn's status as of now. It never mutates conn.
//
// The six states have some overlapping plain-language conditions (e.g.
// both Default and Error can describe "sent long ago"); the
// sent-recency-first precedence below is the resolution: branch on
// whether something was sent recently at all, then resolve the receive
// side within that branch.
func ComputeStatus(conn *Connection, now time.Time) Status {
	if conn.LastSentAt.IsZero() {
		return Default
	}
	sentRecently := now.Sub(conn.LastSentAt) <= Expires

	if sentRecently {
		switch {
		case conn.LastReceived.IsZero():
			return Connecting
		case now.Sub(conn.LastReceived) <= Expires:
			return Connected
		default:
			return Expired // received long ago, sent recently: awaiting response
		}
	}

	// sent long ago (> Expires). A connection that was sent to but never
	// received from reads literally as Default ("never sent, or last sent
	// > Expires ago" doesn't mention receipt at all), but it also
	// satisfies Error's own "received > LongExpires ago" by vacuous
	// truth — nothing was ever received, so it was never received
	// recently either. Error wins here: a peer that never answered after
	// Expires has passed is functionally indistinguishable from one whose
	// last answer is long stale, and both should be Purge-eligible rather
	// than pinged forever.
	switch {
	case !conn.LastReceived.IsZero() && now.Sub(conn.LastReceived) <= Expires:
		return Maintaining
	case conn.LastReceived.IsZero() || now.Sub(conn.LastReceived) > LongExpires:
		return Error
	default:
		return Default
	}
}
