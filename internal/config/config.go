// Package config holds the CLI configuration types.
package config

// Role represents the process's chosen role.
type Role string

const (
	// RoleRendezvous runs the bootstrap WebSocket server (internal/rendezvous).
	RoleRendezvous Role = "rendezvous"
	// RoleNode runs a DMTP peer that logs in against a rendezvous server.
	RoleNode Role = "node"
)

// Config stores all parameters gathered from CLI flags for cmd/dimnode.
type Config struct {
	Role Role

	// Identifier is this node's DMTP identifier, an arbitrary string —
	// real identity/key distribution is out of scope for this module.
	Identifier string

	// ListenAddr is the local UDP address to bind (":0" picks an
	// ephemeral port).
	ListenAddr string

	// STUNServer is the "host:port" of a STUN server used for reflexive
	// address discovery.
	STUNServer string

	// RendezvousURL is the bootstrap WebSocket URL ("ws://host:port/ws")
	// a node dials to exchange its first HI with a peer.
	RendezvousURL string

	// RendezvousCode gates the rendezvous server's accept-first-client
	// handshake (see internal/rendezvous.Server).
	RendezvousCode string
}
