package ratchet

import (
	"errors"

	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
	"ratchetd/internal/util/memzero"
)

const (
	chainKeySize  = 32
	msgKeySize    = 32
	nonceSeedSize = 12

	// KDF context labels. Chain stepping and message-key extraction apply
	// two distinct labels to the same input key; the input is consumed.
	infoChainStep = "ratchetd/v1/chain"
	infoMsgKey    = "ratchetd/v1/msgkey"
	infoRootMix   = "ratchetd/v1/root"
)

var errChainUnseeded = errors.New("ratchet chain key is unseeded")

// step advances one chain: it derives the next chain key and a message key
// from the current chain key, wipes the input, and increments the counter.
// The returned key decrypts (or encrypts) the message at index Index-1.
func step(c *domain.ChainState) (domain.MessageKey, error) {
	if len(c.Key) == 0 {
		return domain.MessageKey{}, errChainUnseeded
	}
	next := crypto.KDF(c.Key, infoChainStep, chainKeySize)
	raw := crypto.KDF(c.Key, infoMsgKey, msgKeySize+nonceSeedSize)
	memzero.Zero(c.Key)
	c.Key = next
	c.Index++
	return domain.MessageKey{Key: raw[:msgKeySize], NonceSeed: raw[msgKeySize:]}, nil
}

// mixRoot folds fresh DH output into the root key, yielding a new root and a
// seeded chain key. The root key only ever changes through this mix.
func mixRoot(root, dh []byte) (newRoot, chainKey []byte) {
	okm := crypto.MixKDF(root, dh, infoRootMix, 2*chainKeySize)
	return okm[:chainKeySize], okm[chainKeySize:]
}
