// Package keys provides a directory.SignatureProvider backed by NaCl
// signing keys, the demo credential wiring for cmd/dimnode.
//
// golang.org/x/crypto already rides along transitively (pterm's terminal
// dependencies pull it in) but nothing imported it directly until now.
package keys

import (
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/sign"
)

// KeyPair holds a NaCl signing keypair and implements
// directory.SignatureProvider.
type KeyPair struct {
	public  *[32]byte
	private *[64]byte
}

// Generate mints a fresh signing keypair.
func Generate() (*KeyPair, error) {
	pub, priv, err := sign.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &KeyPair{public: pub, private: priv}, nil
}

// GenerateFromSeed deterministically derives the same keypair from seed
// every time it is called, so two independently-run node processes
// sharing a pre-shared secret converge on one signing identity without a
// real PKI — the demo stand-in cmd/dimnode uses in place of real identity
// and key distribution.
func GenerateFromSeed(seed []byte) (*KeyPair, error) {
	pub, priv, err := sign.GenerateKey(newSeedReader(seed))
	if err != nil {
		return nil, fmt.Errorf("keys: generate from seed: %w", err)
	}
	return &KeyPair{public: pub, private: priv}, nil
}

// seedReader expands a fixed seed into an arbitrarily long deterministic
// byte stream via counter-mode SHA-512, enough entropy for
// sign.GenerateKey's 32-byte read.
type seedReader struct {
	seed    []byte
	counter uint64
	buf     []byte
}

func newSeedReader(seed []byte) *seedReader {
	return &seedReader{seed: append([]byte{}, seed...)}
}

func (r *seedReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.buf) == 0 {
			ctr := []byte{
				byte(r.counter >> 56), byte(r.counter >> 48), byte(r.counter >> 40), byte(r.counter >> 32),
				byte(r.counter >> 24), byte(r.counter >> 16), byte(r.counter >> 8), byte(r.counter),
			}
			sum := sha512.Sum512(append(append([]byte{}, r.seed...), ctr...))
			r.buf = sum[:]
			r.counter++
		}
		c := copy(p[n:], r.buf)
		r.buf = r.buf[c:]
		n += c
	}
	return n, nil
}

var _ io.Reader = (*seedReader)(nil)

// PublicKey returns the 32-byte public verification key.
func (k *KeyPair) PublicKey() [32]byte { return *k.public }

// Sign returns the detached signature over data: NaCl's sign.Sign
// prepends the signature to the message, so this slices it back off.
func (k *KeyPair) Sign(data []byte) []byte {
	signed := sign.Sign(nil, data, k.private)
	return signed[:len(signed)-len(data)]
}

// Verify checks signature against data using this keypair's public key.
func (k *KeyPair) Verify(data, signature []byte) bool {
	return Verify(*k.public, data, signature)
}

// Verify checks signature against data using an arbitrary public key, for
// verifying locations signed by a different node than the local one.
func Verify(public [32]byte, data, signature []byte) bool {
	signed := append(append([]byte{}, signature...), data...)
	opened, ok := sign.Open(nil, signed, &public)
	if !ok || len(opened) != len(data) {
		return false
	}
	for i := range data {
		if opened[i] != data[i] {
			return false
		}
	}
	return true
}
