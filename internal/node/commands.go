package node

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/1ureka/dimnat/internal/directory"
	"github.com/1ureka/dimnat/internal/dmtp"
	"github.com/1ureka/dimnat/internal/stun"
	"github.com/1ureka/dimnat/internal/util"
)

// Login discovers this node's reflexive address via STUN, stores it as
// its own first location, and announces it to server with a HI command
// (the HI/SIGN handshake).
func (n *Node) Login(ctx context.Context, stunServer string, server net.Addr) error {
	result, err := stun.Discover(ctx, stunServer)
	if err != nil {
		return fmt.Errorf("node: stun discovery: %w", err)
	}
	mapped := &net.UDPAddr{IP: result.MappedAddress.IP, Port: int(result.MappedAddress.Port)}

	now := time.Now()
	loc := directory.Location{
		Identifier: n.Identifier,
		Source:     n.LocalAddr(),
		Mapped:     mapped,
		Timestamp:  now,
	}
	loc.Signature = n.signer.Sign(directory.CanonicalSignData(loc))
	n.dir.Contact(n.Identifier).StoreLocation(loc)

	body := dmtp.HI(n.Identifier,
		&dmtp.Address{IP: loc.Source.IP, Port: uint16(loc.Source.Port)},
		&dmtp.Address{IP: mapped.IP, Port: uint16(mapped.Port)},
		nil, loc.Signature, "", dmtp.EncodeTimestamp(now))

	n.socket.Connect(server)
	n.peer.SendCommand(body, server, n.LocalAddr())
	return nil
}

// Call asks the rendezvous server to relay a CALL to identifier, then
// blocks until that peer's FROM advertisement arrives or ctx expires.
func (n *Node) Call(ctx context.Context, identifier string, server net.Addr) error {
	ready := make(chan struct{})
	n.pendingMu.Lock()
	n.pending[identifier] = ready
	n.pendingMu.Unlock()
	defer func() {
		n.pendingMu.Lock()
		delete(n.pending, identifier)
		n.pendingMu.Unlock()
	}()

	n.peer.SendCommand(dmtp.CALL(identifier), server, n.LocalAddr())

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("node: call to %s: %w", identifier, ctx.Err())
	}
}

// SendMessage delivers content to an identifier this node has already
// resolved a location for (via Login's HI or a prior Call/FROM).
func (n *Node) SendMessage(identifier string, content []byte) (uint32, error) {
	contact := n.dir.Contact(identifier)
	loc, ok := contact.AnyLocation()
	if !ok {
		return 0, fmt.Errorf("node: no known location for %s", identifier)
	}
	dest := loc.Mapped
	if dest == nil {
		dest = loc.Source
	}
	if dest == nil {
		return 0, fmt.Errorf("node: location for %s carries no address", identifier)
	}

	now := time.Now()
	msg := dmtp.Message{
		Sender:    n.Identifier,
		Receiver:  identifier,
		Timestamp: dmtp.EncodeTimestamp(now),
		Content:   content,
	}
	n.socket.Connect(dest)
	sn := n.peer.SendMessage(msg.Encode(), dest, n.LocalAddr())
	util.Stats.AddSent(len(content))
	return sn, nil
}

func (n *Node) handleHI(cmd dmtp.Command, src net.Addr) bool {
	id, ok := dmtp.Find(cmd.Fields, dmtp.TagID)
	if !ok {
		return false
	}
	loc := directory.Location{Identifier: string(id), Timestamp: time.Now()}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagSRC); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Source = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagMAP); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Mapped = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagRLY); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Relayed = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagTIME); ok {
		if ts, err := dmtp.DecodeTimestamp(v); err == nil {
			loc.Timestamp = ts
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagSIGN); ok {
		loc.Signature = v
	}
	n.socket.Connect(src)
	return n.dir.Contact(loc.Identifier).StoreLocation(loc)
}

func (n *Node) handleCALL(cmd dmtp.Command, src net.Addr) bool {
	id, ok := dmtp.Find(cmd.Fields, dmtp.TagID)
	if !ok {
		return false
	}
	util.LogInfo("node: %s requested a call to us from %s", id, src)
	return true
}

// handleFROM stores the advertised peer location, then wakes up any
// pending Call waiting on that identifier.
func (n *Node) handleFROM(cmd dmtp.Command) bool {
	idRaw, ok := dmtp.Find(cmd.Fields, dmtp.TagID)
	if !ok {
		return false
	}
	id := string(idRaw)

	loc := directory.Location{Identifier: id, Timestamp: time.Now()}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagSRC); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Source = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagMAP); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Mapped = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagTIME); ok {
		if ts, err := dmtp.DecodeTimestamp(v); err == nil {
			loc.Timestamp = ts
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagSIGN); ok {
		loc.Signature = v
	}
	n.dir.Contact(id).StoreLocation(loc)

	n.pendingMu.Lock()
	if ready, ok := n.pending[id]; ok {
		close(ready)
		delete(n.pending, id)
	}
	n.pendingMu.Unlock()
	return true
}

func (n *Node) handleBYE(cmd dmtp.Command) bool {
	id, ok := dmtp.Find(cmd.Fields, dmtp.TagID)
	if !ok {
		return false
	}
	loc := directory.Location{Identifier: string(id)}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagSRC); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Source = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagMAP); ok {
		if a, err := dmtp.DecodeAddress(v); err == nil {
			loc.Mapped = &net.UDPAddr{IP: a.IP, Port: int(a.Port)}
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagTIME); ok {
		if ts, err := dmtp.DecodeTimestamp(v); err == nil {
			loc.Timestamp = ts
		}
	}
	if v, ok := dmtp.Find(cmd.Fields, dmtp.TagSIGN); ok {
		loc.Signature = v
	}
	return n.dir.Contact(loc.Identifier).ClearLocation(loc)
}
