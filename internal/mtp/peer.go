package mtp

import (
	"context"
	"net"
	"time"
)

// IdleSleep is how long the dispatch loop waits when neither an arrival
// nor an expired departure gave it anything to do.
const IdleSleep = 100 * time.Millisecond

// Peer runs the single dispatch loop that drains arrivals, retries
// departures and reaps stale reassembly slots. It performs no I/O of its
// own — PeerDelegate.SendData is the only path bytes take out of the
// process — and is ported close to the original chat.dim.mtp.Peer's
// run()/handle()/respond() loop, adapted to Go's context-driven goroutine
// lifecycle.
type Peer struct {
	pool     Pool
	delegate PeerDelegate
}

// NewPeer constructs a Peer over pool, dispatching to delegate.
func NewPeer(pool Pool, delegate PeerDelegate) *Peer {
	return &Peer{pool: pool, delegate: delegate}
}

// Run executes the dispatch loop until ctx is cancelled. Departures still
// in flight at cancellation are dropped without firing a timeout callback.
func (p *Peer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		didWork := p.drainArrivals(ctx)
		if p.retryOneDeparture(time.Now()) {
			didWork = true
		} else {
			p.discardStaleFragments(time.Now())
		}

		if !didWork {
			select {
			case <-ctx.Done():
				return
			case <-time.After(IdleSleep):
			}
		}
	}
}

func (p *Peer) drainArrivals(ctx context.Context) bool {
	did := false
	n := p.pool.CountArrivals()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return did
		default:
		}
		a, ok := p.pool.ShiftFirstArrival()
		if !ok {
			break
		}
		p.Handle(a)
		did = true
	}
	return did
}

func (p *Peer) retryOneDeparture(now time.Time) bool {
	d, ok := p.pool.ShiftExpiredDeparture(now)
	if !ok {
		return false
	}
	if d.exhausted() {
		if d.IsCommand {
			p.delegate.OnSendCommandTimeout(d.SN, d.Dest, d.Source)
		} else {
			p.delegate.OnSendMessageTimeout(d.SN, d.Dest, d.Source)
		}
		return true
	}
	for _, pkg := range d.Packages {
		p.delegate.SendData(pkg.Encode(), d.Dest, d.Source)
	}
	d.scheduleRetry(now)
	p.pool.AppendDeparture(d)
	return true
}

func (p *Peer) discardStaleFragments(now time.Time) {
	for _, slot := range p.pool.DiscardFragments(now) {
		p.delegate.RecycleFragments(slot.Fragments, slot.Source, slot.Dest)
	}
}

// Handle processes one received datagram, dispatching it by packet type.
// Malformed payloads are dropped silently.
func (p *Peer) Handle(a Arrival) {
	pkg, err := ParsePackage(a.Payload)
	if err != nil {
		return
	}

	switch pkg.Head.Type {
	case CommandRespond:
		if p.pool.DeleteDeparture(pkg.Head.SN, 0, false, a.Dest, a.Source) {
			p.delegate.OnSendCommandSuccess(pkg.Head.SN, a.Source, a.Dest)
		}
	case MessageRespond:
		hasOffset := pkg.Head.Pages > 1
		if p.pool.DeleteDeparture(pkg.Head.SN, pkg.Head.Offset, hasOffset, a.Dest, a.Source) {
			p.delegate.OnSendMessageSuccess(pkg.Head.SN, a.Source, a.Dest)
		}
	case Command:
		if p.delegate.OnReceivedCommand(pkg.Body, a.Source, a.Dest) {
			p.respond(CommandRespond, pkg.Head.SN, pkg.Head.Pages, pkg.Head.Offset, []byte("OK"), a)
		}
	case Message:
		if p.delegate.OnReceivedMessage(pkg.Body, a.Source, a.Dest) {
			p.respond(MessageRespond, pkg.Head.SN, pkg.Head.Pages, pkg.Head.Offset, []byte("OK"), a)
		}
	case MessageFragment:
		p.handleFragment(pkg, a)
	}
}

func (p *Peer) handleFragment(pkg Package, a Arrival) {
	if !p.delegate.CheckFragment(pkg, a.Source, a.Dest) {
		return
	}
	if assembled, ok := p.pool.InsertFragment(pkg, a.Source, a.Dest); ok {
		p.delegate.OnReceivedMessage(assembled.Body, a.Source, a.Dest)
	}
	// Always ack the individual fragment so the sender can retire it: a
	// MessageRespond carrying pages‖offset‖OK.
	body := append(append([]byte{}, uint32ToBytes(pkg.Head.Pages)...), uint32ToBytes(pkg.Head.Offset)...)
	body = append(body, []byte("OK")...)
	p.respond(MessageRespond, pkg.Head.SN, pkg.Head.Pages, pkg.Head.Offset, body, a)
}

func (p *Peer) respond(t PacketType, sn, pages, offset uint32, body []byte, a Arrival) {
	resp := Package{Head: Header{Type: t, SN: sn, Pages: pages, Offset: offset, BodyLen: uint32(len(body))}, Body: body}
	p.delegate.SendData(resp.Encode(), a.Source, a.Dest)
}

func uint32ToBytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// SendCommand enqueues a command for delivery and returns its SN. Commands
// are never split — only Message may be split into fragments.
func (p *Peer) SendCommand(body []byte, remote, local net.Addr) uint32 {
	return p.send(Command, body, remote, local, true)
}

// SendMessage enqueues a message for delivery, splitting it into
// fragments first if it exceeds MaxBodyLen, and returns its SN.
func (p *Peer) SendMessage(body []byte, remote, local net.Addr) uint32 {
	return p.send(Message, body, remote, local, false)
}

func (p *Peer) send(t PacketType, body []byte, remote, local net.Addr, isCommand bool) uint32 {
	pkgs := Create(t, 0, body)
	sn := pkgs[0].Head.SN
	now := time.Now()
	d := &Departure{Packages: pkgs, SN: sn, Source: local, Dest: remote, IsCommand: isCommand, NextRetry: now}
	for _, pkg := range pkgs {
		p.delegate.SendData(pkg.Encode(), remote, local)
	}
	d.scheduleRetry(now)
	p.pool.AppendDeparture(d)
	return sn
}

// Receive enqueues a raw datagram for the dispatch loop to handle. Called
// by internal/node's arrival bridge for each non-heartbeat payload it
// drains from the socket's receive cache (internal/udpsock).
func (p *Peer) Receive(payload []byte, source, dest net.Addr) {
	p.pool.AppendArrival(Arrival{Payload: payload, Source: source, Dest: dest})
}
