package ratchet

import (
	"fmt"

	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
	"ratchetd/internal/util/memzero"
)

// reseedFromRemote runs a full DH ratchet step after the peer rotated its
// ratchet key.
//
// Two mixes: first the receiving chain from DH(old local private, new
// remote), then a fresh local pair and the sending chain from DH(new local
// private, new remote). The first discards the old chains (forward secrecy);
// the second injects entropy an attacker holding old keys does not have
// (post-compromise security).
//
// All derivations complete before any state is assigned, so a failure leaves
// st untouched.
func reseedFromRemote(st *domain.SessionState, remote domain.X25519Public) error {
	dhRecv, err := crypto.SharedSecret(st.DHPriv, remote)
	if err != nil {
		return fmt.Errorf("%w: receiving mix: %v", domain.ErrRatchetFailure, err)
	}
	rootA, recvCK := mixRoot(st.RootKey, dhRecv[:])
	memzero.Zero(dhRecv[:])

	newPriv, newPub, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("%w: keygen: %v", domain.ErrRatchetFailure, err)
	}
	dhSend, err := crypto.SharedSecret(newPriv, remote)
	if err != nil {
		return fmt.Errorf("%w: sending mix: %v", domain.ErrRatchetFailure, err)
	}
	rootB, sendCK := mixRoot(rootA, dhSend[:])
	memzero.Zero(dhSend[:])
	memzero.Zero(rootA)

	memzero.Zero(st.RootKey)
	memzero.Zero(st.Send.Key)
	memzero.Zero(st.Recv.Key)

	st.PrevChainLen = st.Send.Index
	st.RootKey = rootB
	st.Recv = domain.ChainState{Key: recvCK}
	st.Send = domain.ChainState{Key: sendCK}
	st.DHPriv, st.DHPub = newPriv, newPub
	st.PeerDHPub = remote
	st.RecvGeneration++
	st.RemoteGenerations[remote] = st.RecvGeneration
	return nil
}

// seedSendChain performs the sender half of a ratchet step for a session
// whose sending chain is not yet seeded (the responder's first send).
func seedSendChain(st *domain.SessionState) error {
	newPriv, newPub, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("%w: keygen: %v", domain.ErrRatchetFailure, err)
	}
	dh, err := crypto.SharedSecret(newPriv, st.PeerDHPub)
	if err != nil {
		return fmt.Errorf("%w: sending mix: %v", domain.ErrRatchetFailure, err)
	}
	root, sendCK := mixRoot(st.RootKey, dh[:])
	memzero.Zero(dh[:])

	memzero.Zero(st.RootKey)
	st.PrevChainLen = st.Send.Index
	st.RootKey = root
	st.Send = domain.ChainState{Key: sendCK}
	st.DHPriv, st.DHPub = newPriv, newPub
	return nil
}
