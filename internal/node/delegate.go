package node

import (
	"net"

	"github.com/1ureka/dimnat/internal/dmtp"
	"github.com/1ureka/dimnat/internal/mtp"
	"github.com/1ureka/dimnat/internal/udpsock"
	"github.com/1ureka/dimnat/internal/util"
)

var _ mtp.PeerDelegate = (*Node)(nil)
var _ udpsock.ConnectionDelegate = (*Node)(nil)

// SendData is the only path bytes take out of the process on the MTP
// side; the dispatch loop never touches the OS socket directly.
func (n *Node) SendData(payload []byte, remote, local net.Addr) int {
	addr, ok := remote.(*net.UDPAddr)
	if !ok {
		return -1
	}
	return n.socket.Send(payload, addr)
}

// OnReceivedCommand decodes and dispatches one incoming DMTP command.
func (n *Node) OnReceivedCommand(body []byte, src, dst net.Addr) bool {
	cmd, err := dmtp.ParseCommand(body)
	if err != nil {
		util.LogWarning("node: malformed command from %s: %v", src, err)
		return false
	}

	switch cmd.Name {
	case dmtp.CmdHI:
		return n.handleHI(cmd, src)
	case dmtp.CmdCALL:
		return n.handleCALL(cmd, src)
	case dmtp.CmdFROM:
		return n.handleFROM(cmd)
	case dmtp.CmdBYE:
		return n.handleBYE(cmd)
	case dmtp.CmdSIGN:
		return true // server-only command; a peer node just acknowledges it
	default:
		util.LogWarning("node: unknown command %q from %s", cmd.Name, src)
		return false
	}
}

// OnReceivedMessage decodes one reassembled DMTP message and logs it; a
// real application would route Content to its own message store.
func (n *Node) OnReceivedMessage(body []byte, src, dst net.Addr) bool {
	msg, err := dmtp.ParseMessage(body)
	if err != nil {
		return false
	}
	util.LogInfo("node: message from %s to %s (%d bytes)", msg.Sender, msg.Receiver, len(msg.Content))
	util.Stats.AddRecv(len(msg.Content))
	return true
}

// CheckFragment accepts every fragment whose sender has a tracked
// connection, whatever its status; fragments from untracked addresses are
// a spoofing risk and get dropped.
func (n *Node) CheckFragment(pkg mtp.Package, src, dst net.Addr) bool {
	addr, ok := src.(*net.UDPAddr)
	if !ok {
		return false
	}
	return socketChecker{n.socket}.IsLive(addr) || n.socket.GetConnection(addr) != nil
}

func (n *Node) OnSendCommandSuccess(sn uint32, dst, src net.Addr) {
	util.LogDebug("node: command %d acknowledged by %s", sn, dst)
}

func (n *Node) OnSendMessageSuccess(sn uint32, dst, src net.Addr) {
	util.LogDebug("node: message %d acknowledged by %s", sn, dst)
}

func (n *Node) OnSendCommandTimeout(sn uint32, dst, src net.Addr) {
	util.LogWarning("node: command %d to %s timed out", sn, dst)
}

func (n *Node) OnSendMessageTimeout(sn uint32, dst, src net.Addr) {
	util.LogWarning("node: message %d to %s timed out", sn, dst)
}

// RecycleFragments is invoked when a reassembly slot goes stale before
// completion; there is nothing durable to recover, so this just logs
// the loss.
func (n *Node) RecycleFragments(fragments []mtp.Package, src, dst net.Addr) {
	util.LogWarning("node: discarded %d stale fragment(s) from %s", len(fragments), src)
}

// OnConnectionStatusChanged tracks aggregate connection counts and relays
// Connected/Error transitions to the stats reporter.
func (n *Node) OnConnectionStatusChanged(conn *udpsock.Connection, old, new udpsock.Status) {
	switch new {
	case udpsock.Connected:
		if old != udpsock.Maintaining {
			util.Stats.AddConn()
		}
	case udpsock.Error:
		util.Stats.RemoveConn()
	}
	util.LogDebug("node: connection %s: %v -> %v", conn.Remote, old, new)
}

// OnConnectionReceivedData is fired whenever a cached payload arrives
// from a tracked connection; the actual bytes are drained by
// bridgeArrivals, this is purely an observability hook.
func (n *Node) OnConnectionReceivedData(conn *udpsock.Connection) {
	util.LogDebug("node: data cached from %s", conn.Remote)
}
