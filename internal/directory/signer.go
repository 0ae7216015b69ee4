package directory

// SignatureProvider is the embedder-supplied signing collaborator: sign
// produces a location's SIGN field value, verify checks one against the
// canonical sign data.
type SignatureProvider interface {
	Sign(data []byte) []byte
	Verify(data, signature []byte) bool
}
