package directory

import (
	"net"
	"sort"
	"sync"
	"time"
)

// ConnectionChecker lets Contact.Purge consult live connection state
// without this package depending on internal/udpsock directly — the
// embedder (internal/node) wires its udpsock.Socket through this narrow
// interface instead.
type ConnectionChecker interface {
	// IsLive reports whether addr currently has a non-errored connection.
	IsLive(addr *net.UDPAddr) bool
}

// Contact is one identifier's location history: a timestamp-ascending
// list of verified locations, ported close to chat.dim.dmtp.Contact.
type Contact struct {
	Identifier string
	signer     SignatureProvider

	mu        sync.RWMutex
	locations []Location
}

// NewContact constructs an empty contact that verifies/signs locations
// through signer.
func NewContact(identifier string, signer SignatureProvider) *Contact {
	return &Contact{Identifier: identifier, signer: signer}
}

func (c *Contact) verify(loc Location) bool {
	if loc.Identifier == "" || loc.Source == nil || loc.Timestamp.IsZero() {
		return false
	}
	data := CanonicalSignData(loc)
	if data == nil || loc.Signature == nil {
		return false
	}
	return c.signer.Verify(data, loc.Signature)
}

// StoreLocation verifies loc's signature and inserts it, keeping the list
// timestamp-ascending. Rejects loc if a required field is missing, or if
// its timestamp is older than the most recent stored record for the same
// (source, mapped) pair — in which case prior records for that pair are
// left untouched. On acceptance, prior records for the same pair are
// removed before insertion.
func (c *Contact) StoreLocation(loc Location) bool {
	if !c.verify(loc) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.locations {
		if sameAddr(loc.Source, item.Source) && sameAddr(loc.Mapped, item.Mapped) && loc.Timestamp.Before(item.Timestamp) {
			return false
		}
	}

	kept := make([]Location, 0, len(c.locations))
	for _, item := range c.locations {
		if !sameAddr(loc.Source, item.Source) || !sameAddr(loc.Mapped, item.Mapped) {
			kept = append(kept, item)
		}
		// same-pair record dropped: loc (already known not older) supersedes it.
	}
	c.locations = kept

	idx := sort.Search(len(c.locations), func(i int) bool {
		return c.locations[i].Timestamp.After(loc.Timestamp)
	})
	c.locations = append(c.locations, Location{})
	copy(c.locations[idx+1:], c.locations[idx:])
	c.locations[idx] = loc
	return true
}

// ClearLocation verifies loc's signature and removes every record
// matching its (source, mapped) pair.
func (c *Contact) ClearLocation(loc Location) bool {
	if !c.verify(loc) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.locations[:0]
	removed := 0
	for _, item := range c.locations {
		if sameAddr(loc.Source, item.Source) && sameAddr(loc.Mapped, item.Mapped) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.locations = kept
	return removed > 0
}

// Purge drops expired records. With peer == nil, a record expires when
// now > timestamp + ExpiresWithoutPeer. With peer set, a record is kept
// iff either its source or mapped address currently has a live
// (non-errored) connection.
func (c *Contact) Purge(peer ConnectionChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	kept := c.locations[:0]
	for _, item := range c.locations {
		if peer == nil {
			if now.After(item.Timestamp.Add(ExpiresWithoutPeer)) {
				continue
			}
			kept = append(kept, item)
			continue
		}
		if (item.Source != nil && peer.IsLive(item.Source)) || (item.Mapped != nil && peer.IsLive(item.Mapped)) {
			kept = append(kept, item)
		}
	}
	c.locations = kept
}

// AnyLocation returns the most recently stored location, if any.
func (c *Contact) AnyLocation() (Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.locations) == 0 {
		return Location{}, false
	}
	return c.locations[len(c.locations)-1], true
}

// AllLocations returns every stored location, most recent first.
func (c *Contact) AllLocations() []Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Location, len(c.locations))
	for i, l := range c.locations {
		out[len(c.locations)-1-i] = l
	}
	return out
}
