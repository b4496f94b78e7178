package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KDF derives n bytes from key using HKDF-SHA256 with the given context
// label. Deterministic and one-way: the same inputs always yield the same
// output, and the output reveals nothing about key.
func KDF(key []byte, info string, n int) []byte {
	r := hkdf.New(sha256.New, key, nil, []byte(info))
	out := make([]byte, n)
	// hkdf.Reader only fails past its 255-block limit, far beyond any n used
	// here.
	_, _ = io.ReadFull(r, out)
	return out
}

// MixKDF derives n bytes from two inputs: a chaining key used as the HKDF
// salt and fresh secret material as the input keying material. Used for
// root-key updates on DH ratchet steps.
func MixKDF(chainingKey, secret []byte, info string, n int) []byte {
	r := hkdf.New(sha256.New, secret, chainingKey, []byte(info))
	out := make([]byte, n)
	_, _ = io.ReadFull(r, out)
	return out
}
