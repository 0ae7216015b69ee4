package mtp

import (
	"net"
	"sync"
	"time"
)

// Pool is the set of operations the dispatch loop depends on. It
// deliberately exposes no iteration or locking primitives —
// every method is a complete, atomic step so the engine never needs to
// reach into the pool's internals.
type Pool interface {
	AppendArrival(a Arrival)
	ShiftFirstArrival() (Arrival, bool)
	CountArrivals() int

	AppendDeparture(d *Departure)
	ShiftExpiredDeparture(now time.Time) (*Departure, bool)
	DeleteDeparture(sn uint32, offset uint32, hasOffset bool, src, dst net.Addr) bool

	InsertFragment(pkg Package, src, dst net.Addr) (Package, bool)
	DiscardFragments(now time.Time) []Assemble
}

// MemPool is the in-memory Pool implementation the peer engine is built
// against. Arrival and departure collections are single-writer/
// multi-reader — only the dispatch loop mutates them, but AppendArrival
// and AppendDeparture are also called from send()/Handle() invoked off
// other goroutines, so all three are mutex-protected.
type MemPool struct {
	mu sync.Mutex

	arrivals   []Arrival
	departures []*Departure
	assembling map[assembleKey]*Assemble
}

type assembleKey struct {
	sn   uint32
	src  string
	dst  string
}

// NewMemPool constructs an empty pool.
func NewMemPool() *MemPool {
	return &MemPool{assembling: make(map[assembleKey]*Assemble)}
}

func (p *MemPool) AppendArrival(a Arrival) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.arrivals = append(p.arrivals, a)
}

func (p *MemPool) ShiftFirstArrival() (Arrival, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.arrivals) == 0 {
		return Arrival{}, false
	}
	a := p.arrivals[0]
	p.arrivals = p.arrivals[1:]
	return a, true
}

func (p *MemPool) CountArrivals() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.arrivals)
}

func (p *MemPool) AppendDeparture(d *Departure) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.departures = append(p.departures, d)
}

// ShiftExpiredDeparture pops and returns the first departure whose retry
// timer has elapsed (FIFO among expired entries: resent in order of expiry
// time). It does not remove departures that aren't yet expired.
func (p *MemPool) ShiftExpiredDeparture(now time.Time) (*Departure, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, d := range p.departures {
		if d.expired(now) {
			p.departures = append(p.departures[:i], p.departures[i+1:]...)
			return d, true
		}
	}
	return nil, false
}

// DeleteDeparture removes a departure matching sn (and offset, when
// hasOffset is set — for retiring a single fragment's response) and
// addresses. Returns whether a matching departure was found; with
// hasOffset set, the departure itself is removed only once its last
// fragment package has been retired.
func (p *MemPool) DeleteDeparture(sn uint32, offset uint32, hasOffset bool, src, dst net.Addr) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, d := range p.departures {
		if d.SN != sn || !sameAddr(d.Source, src) || !sameAddr(d.Dest, dst) {
			continue
		}
		if !hasOffset {
			p.departures = append(p.departures[:i], p.departures[i+1:]...)
			return true
		}
		// Retire just the one fragment package at this offset; drop the
		// whole departure once every fragment has been acknowledged.
		remaining := d.Packages[:0]
		for _, pkg := range d.Packages {
			if pkg.Head.Offset != offset {
				remaining = append(remaining, pkg)
			}
		}
		d.Packages = remaining
		if len(d.Packages) == 0 {
			p.departures = append(p.departures[:i], p.departures[i+1:]...)
		}
		return true
	}
	return false
}

// InsertFragment adds pkg to its (sn, src, dst) reassembly slot and
// returns the assembled Message package if that completes the set.
func (p *MemPool) InsertFragment(pkg Package, src, dst net.Addr) (Package, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := assembleKey{sn: pkg.Head.SN, src: addrKey(src), dst: addrKey(dst)}
	slot, ok := p.assembling[key]
	if !ok {
		slot = &Assemble{SN: pkg.Head.SN, Source: src, Dest: dst, Pages: pkg.Head.Pages}
		p.assembling[key] = slot
	}
	slot.LastUpdated = time.Now()

	for _, existing := range slot.Fragments {
		if existing.Head.Offset == pkg.Head.Offset {
			return Package{}, false // duplicate fragment, first-wins
		}
	}
	slot.Fragments = append(slot.Fragments, pkg)

	if !slot.complete() {
		return Package{}, false
	}
	delete(p.assembling, key)
	assembled, ok := Assemble2Package(*slot)
	return assembled, ok
}

// DiscardFragments removes and returns every reassembly slot whose last
// update is older than ReassemblyTimeout.
func (p *MemPool) DiscardFragments(now time.Time) []Assemble {
	p.mu.Lock()
	defer p.mu.Unlock()
	var stale []Assemble
	for key, slot := range p.assembling {
		if slot.stale(now) {
			stale = append(stale, *slot)
			delete(p.assembling, key)
		}
	}
	return stale
}

// Assemble2Package concatenates a completed assembly slot's fragments into
// a Message package, delegating to the pure Assemble helper.
func Assemble2Package(slot Assemble) (Package, bool) {
	return AssembleFragments(slot.Fragments)
}

func addrKey(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

func sameAddr(a, b net.Addr) bool {
	return addrKey(a) == addrKey(b)
}
