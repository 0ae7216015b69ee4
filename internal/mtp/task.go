package mtp

import (
	"net"
	"time"
)

// MaxRetries and RetryInterval bound a departure's resend schedule.
const (
	MaxRetries    = 5
	RetryInterval = 2 * time.Second
)

// ReassemblyTimeout bounds how long an incomplete fragment-assembly slot is
// kept before the dispatch loop discards it.
const ReassemblyTimeout = 30 * time.Second

// Arrival is one received datagram waiting to be handled by the dispatch
// loop.
type Arrival struct {
	Payload []byte
	Source  net.Addr
	Dest    net.Addr
}

// Departure is an outgoing package (or package set, for a split message)
// awaiting acknowledgement, with its retry bookkeeping.
type Departure struct {
	Packages []Package
	SN       uint32
	Source   net.Addr
	Dest     net.Addr
	IsCommand bool

	Retries   int
	NextRetry time.Time
}

// expired reports whether this departure's retry timer has elapsed.
func (d *Departure) expired(now time.Time) bool {
	return !now.Before(d.NextRetry)
}

// exhausted reports whether this departure has used up its retry budget.
func (d *Departure) exhausted() bool {
	return d.Retries >= MaxRetries
}

func (d *Departure) scheduleRetry(now time.Time) {
	d.Retries++
	d.NextRetry = now.Add(RetryInterval)
}

// Assemble is one in-progress fragment-reassembly slot: all fragments seen
// so far for a given (source, destination, sn).
type Assemble struct {
	SN          uint32
	Source      net.Addr
	Dest        net.Addr
	Pages       uint32
	Fragments   []Package
	LastUpdated time.Time
}

func (a *Assemble) stale(now time.Time) bool {
	return now.Sub(a.LastUpdated) > ReassemblyTimeout
}

func (a *Assemble) complete() bool {
	return uint32(len(a.Fragments)) == a.Pages
}
