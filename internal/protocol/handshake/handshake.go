package handshake

import (
	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
	"ratchetd/internal/util/memzero"
)

const infoRoot = "ratchetd/v1/handshake"

// InitiatorHello derives the session root key for the side that knows the
// peer's static public key, returning the ephemeral pair whose public half
// must travel in the first ratchet header.
func InitiatorHello(peerStatic domain.X25519Public) (root []byte, priv domain.X25519Private, pub domain.X25519Public, err error) {
	priv, pub, err = crypto.GenerateKeyPair()
	if err != nil {
		return nil, priv, pub, err
	}
	dh, err := crypto.SharedSecret(priv, peerStatic)
	if err != nil {
		return nil, priv, pub, err
	}
	root = crypto.KDF(dh[:], infoRoot, 32)
	memzero.Zero(dh[:])
	return root, priv, pub, nil
}

// ResponderRoot derives the same root from the responder's static key and
// the initiator ephemeral carried in the first header.
func ResponderRoot(static domain.Identity, initiatorEph domain.X25519Public) ([]byte, error) {
	dh, err := crypto.SharedSecret(static.Private, initiatorEph)
	if err != nil {
		return nil, err
	}
	root := crypto.KDF(dh[:], infoRoot, 32)
	memzero.Zero(dh[:])
	return root, nil
}
