package udpsock

import (
	"context"
	"net"
	"testing"
	"time"
)

type statusEvent struct {
	old, new Status
}

type recordingDelegate struct {
	statusEvents []statusEvent
	dataEvents   int
}

func (r *recordingDelegate) OnConnectionStatusChanged(conn *Connection, old, new Status) {
	r.statusEvents = append(r.statusEvents, statusEvent{old, new})
}

func (r *recordingDelegate) OnConnectionReceivedData(conn *Connection) {
	r.dataEvents++
}

func mustSocket(t *testing.T) *Socket {
	t.Helper()
	s, err := NewSocket(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("NewSocket: %v", err)
	}
	return s
}

func TestSocketSendUpdatesSentTimeAndFiresStatusChange(t *testing.T) {
	a := mustSocket(t)
	defer a.Close()
	b := mustSocket(t)
	defer b.Close()

	delegate := &recordingDelegate{}
	a.SetDelegate(delegate)

	conn := a.Connect(b.LocalAddr())
	if got := ComputeStatus(conn, time.Now()); got != Default {
		t.Fatalf("expected fresh connection to start Default, got %s", got)
	}

	a.Send([]byte("hello"), b.LocalAddr())

	if got := ComputeStatus(conn, time.Now()); got != Connecting {
		t.Fatalf("expected Connecting after send, got %s", got)
	}
	if len(delegate.statusEvents) != 1 || delegate.statusEvents[0].new != Connecting {
		t.Fatalf("expected one status change to Connecting, got %+v", delegate.statusEvents)
	}
}

func TestSocketRunCachesApplicationPayloadAndNotifiesDelegate(t *testing.T) {
	a := mustSocket(t)
	defer a.Close()
	b := mustSocket(t)
	defer b.Close()

	delegate := &recordingDelegate{}
	a.SetDelegate(delegate)
	a.Connect(b.LocalAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	b.Send([]byte("payload"), a.LocalAddr())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, ok := a.Receive(); ok {
			if string(c.Payload) != "payload" {
				t.Fatalf("unexpected payload: %q", c.Payload)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for cached payload")
}

func TestSocketRunInterceptsHeartbeatWithoutCaching(t *testing.T) {
	a := mustSocket(t)
	defer a.Close()
	b := mustSocket(t)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)

	b.Send([]byte("PING"), a.LocalAddr())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c, ok := b.Receive(); ok {
			if string(c.Payload) != "" {
				t.Fatalf("expected PONG to be intercepted, not cached: %q", c.Payload)
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := a.Receive(); ok {
		t.Fatalf("expected PING never cached on the receiving side")
	}
}

func TestSocketPurgeRemovesErroredConnections(t *testing.T) {
	a := mustSocket(t)
	defer a.Close()

	remote := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999}
	conn := a.Connect(remote)
	conn.LastSentAt = time.Now().Add(-Expires - time.Second)
	conn.LastReceived = time.Now().Add(-LongExpires - time.Second)

	a.Purge()

	if a.GetConnection(remote) != nil {
		t.Fatalf("expected errored connection to be purged")
	}
}

func TestSocketDisconnectRemovesConnection(t *testing.T) {
	a := mustSocket(t)
	defer a.Close()
	remote := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9998}
	a.Connect(remote)
	if !a.Disconnect(remote) {
		t.Fatalf("expected disconnect to find the connection")
	}
	if a.Disconnect(remote) {
		t.Fatalf("expected second disconnect to find nothing")
	}
}
