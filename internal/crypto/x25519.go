package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"ratchetd/internal/domain"
)

// GenerateKeyPair returns a fresh Curve25519 key pair. The private key is
// clamped per RFC 7748. Pairs are never reused across sessions.
func GenerateKeyPair() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// SharedSecret computes X25519 Diffie–Hellman. It rejects peer keys that
// produce the all-zero point (low-order inputs) with ErrInvalidKey.
func SharedSecret(priv domain.X25519Private, pub domain.X25519Public) ([32]byte, error) {
	var out [32]byte
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrInvalidKey, err)
	}
	copy(out[:], secret)
	return out, nil
}

// PublicKeyFromWire validates a wire-carried public key.
func PublicKeyFromWire(b []byte) (domain.X25519Public, error) {
	var pub domain.X25519Public
	if len(b) != 32 {
		return pub, fmt.Errorf("%w: want 32 bytes, got %d", domain.ErrInvalidKey, len(b))
	}
	copy(pub[:], b)
	return pub, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
