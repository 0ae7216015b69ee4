package stun

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"time"
)

// BindingResult is what a client learns from a single STUN binding
// transaction: its reflexive (server-observed) address and the server's
// SOFTWARE string, if it sent one. It records no CHANGE-REQUEST probe
// outcome and no NAT type classification.
type BindingResult struct {
	MappedAddress MappedAddress
	Software      string
}

// Discover runs one binding transaction against server and returns the
// reflexive address it reports. It owns its own UDP socket for the
// duration of the call; callers that need many transactions against many
// servers should dial once and call DiscoverOn repeatedly instead.
func Discover(ctx context.Context, server string) (BindingResult, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return BindingResult{}, fmt.Errorf("stun: listen: %w", err)
	}
	defer conn.Close()

	raddr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return BindingResult{}, fmt.Errorf("stun: resolve %s: %w", server, err)
	}
	return DiscoverOn(ctx, conn, raddr)
}

// DiscoverOn runs one binding transaction over an already-open socket,
// respecting ctx for cancellation and timeout. It retries nothing itself —
// retry/backoff across a list of candidate servers is the caller's concern.
func DiscoverOn(ctx context.Context, conn *net.UDPConn, server *net.UDPAddr) (BindingResult, error) {
	var txnID [12]byte
	if _, err := rand.Read(txnID[:]); err != nil {
		return BindingResult{}, fmt.Errorf("stun: generating transaction id: %w", err)
	}
	req := NewBindingRequest(txnID)

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(5 * time.Second))
	}
	defer conn.SetDeadline(time.Time{})

	if _, err := conn.WriteToUDP(req.Encode(), server); err != nil {
		return BindingResult{}, fmt.Errorf("stun: send binding request: %w", err)
	}

	buf := make([]byte, 1500)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return BindingResult{}, fmt.Errorf("stun: recv: %w", err)
		}
		if !from.IP.Equal(server.IP) || from.Port != server.Port {
			continue // stray packet from an unrelated peer, keep waiting
		}
		resp, err := ParseMessage(buf[:n])
		if err != nil || resp.TransactionID != req.TransactionID {
			continue
		}
		if resp.Type == TypeBindingErrorRespone {
			if ec, ok := resp.Attribute(AttrErrorCode); ok {
				e := ec.(ErrorCode)
				return BindingResult{}, fmt.Errorf("stun: server returned error %d: %s", e.Code, e.Reason)
			}
			return BindingResult{}, fmt.Errorf("stun: server returned an error response")
		}

		result := BindingResult{}
		if addr, ok := resp.Attribute(AttrXorMappedAddress); ok {
			result.MappedAddress = addr.(MappedAddress)
		} else if addr, ok := resp.Attribute(AttrMappedAddress); ok {
			result.MappedAddress = addr.(MappedAddress)
		} else {
			return BindingResult{}, fmt.Errorf("stun: binding response carries no mapped address")
		}
		if sw, ok := resp.Attribute(AttrSoftware); ok {
			result.Software = sw.(string)
		}
		return result, nil
	}
}
