package mtp

import "net"

// PeerDelegate is the embedder-supplied callback surface the dispatch loop
// invokes. The engine performs no OS I/O itself — sendData is the only
// place bytes actually leave the process.
type PeerDelegate interface {
	// SendData performs the OS-level send and returns the number of bytes
	// written, or -1 on failure.
	SendData(payload []byte, remote, local net.Addr) int

	// OnReceivedCommand/OnReceivedMessage deliver a reassembled body to the
	// embedder; a false return means the work was rejected and no
	// CommandRespond/MessageRespond should be sent.
	OnReceivedCommand(body []byte, src, dst net.Addr) bool
	OnReceivedMessage(body []byte, src, dst net.Addr) bool

	// CheckFragment lets the embedder reject a fragment before it is
	// inserted into the reassembly pool (e.g. a blacklist policy).
	CheckFragment(pkg Package, src, dst net.Addr) bool

	OnSendCommandSuccess(sn uint32, dst, src net.Addr)
	OnSendMessageSuccess(sn uint32, dst, src net.Addr)
	OnSendCommandTimeout(sn uint32, dst, src net.Addr)
	OnSendMessageTimeout(sn uint32, dst, src net.Addr)

	// RecycleFragments hands back reassembly slots that timed out before
	// completion, so the embedder may archive or drop them.
	RecycleFragments(fragments []Package, src, dst net.Addr)
}
