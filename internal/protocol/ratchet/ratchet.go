package ratchet

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
	"ratchetd/internal/util/memzero"
)

// maxSkip bounds how many message keys a single message may force us to
// derive. Larger gaps mean the intermediate keys would be evicted from the
// cache anyway, so the message is rejected as stale instead.
const maxSkip = 1000

// InitInitiator seeds session state for the side that starts from the peer's
// known static public key. The handshake ephemeral pair becomes the first
// ratchet key; its public half rides in every header until the peer answers
// and triggers the first DH ratchet step.
func InitInitiator(
	agent domain.AgentID,
	root []byte,
	ephPriv domain.X25519Private,
	ephPub domain.X25519Public,
	peerStatic domain.X25519Public,
) (*domain.SessionState, error) {
	dh, err := crypto.SharedSecret(ephPriv, peerStatic)
	if err != nil {
		return nil, err
	}
	newRoot, sendCK := mixRoot(root, dh[:])
	memzero.Zero(dh[:])

	now := time.Now()
	return &domain.SessionState{
		ID:                uuid.New(),
		Agent:             agent,
		RootKey:           newRoot,
		DHPriv:            ephPriv,
		DHPub:             ephPub,
		PeerDHPub:         peerStatic, // placeholder until the first remote ratchet key arrives
		Send:              domain.ChainState{Key: sendCK},
		RemoteGenerations: map[domain.X25519Public]uint32{peerStatic: 0},
		CreatedAt:         now,
		LastActive:        now,
	}, nil
}

// InitResponder seeds session state for the side contacted first. The
// receiving chain is derived from the responder's static key and the
// initiator's ratchet key out of the first header; the sending chain stays
// unseeded until the first reply.
func InitResponder(
	agent domain.AgentID,
	root []byte,
	static domain.Identity,
	senderPub domain.X25519Public,
) (*domain.SessionState, error) {
	dh, err := crypto.SharedSecret(static.Private, senderPub)
	if err != nil {
		return nil, err
	}
	newRoot, recvCK := mixRoot(root, dh[:])
	memzero.Zero(dh[:])

	// Fresh local pair; the first send replaces it during its own ratchet
	// step, so it never signs any traffic.
	priv, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &domain.SessionState{
		ID:                uuid.New(),
		Agent:             agent,
		RootKey:           newRoot,
		DHPriv:            priv,
		DHPub:             pub,
		PeerDHPub:         senderPub,
		Recv:              domain.ChainState{Key: recvCK},
		RemoteGenerations: map[domain.X25519Public]uint32{senderPub: 0},
		CreatedAt:         now,
		LastActive:        now,
	}, nil
}

// Encrypt advances the sending chain and seals plaintext into an envelope.
// The header is bound as associated data, so header tampering fails
// authentication on the peer.
func Encrypt(st *domain.SessionState, ad, plaintext []byte) (domain.Envelope, error) {
	if len(st.Send.Key) == 0 {
		if err := seedSendChain(st); err != nil {
			return domain.Envelope{}, err
		}
	}

	n := st.Send.Index
	mk, err := step(&st.Send)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrRatchetFailure, err)
	}
	defer mk.Zero()

	header := domain.RatchetHeader{
		DHPublicKey:     append([]byte(nil), st.DHPub[:]...),
		PreviousCounter: st.PrevChainLen,
		MessageCounter:  n,
	}

	iv := make([]byte, nonceSeedSize)
	if _, err := rand.Read(iv); err != nil {
		return domain.Envelope{}, err
	}
	ct := seal(mk, header, ad, iv, plaintext)

	return domain.Envelope{
		Encrypted:  true,
		Ciphertext: ct,
		IV:         iv,
		Header:     header,
	}, nil
}

// Decrypt resolves the message key for env and opens it.
//
// Resolution order: a key the receiving chain already stepped past comes from
// the skipped-key store; a new remote ratchet key triggers a DH ratchet step;
// a counter ahead of the chain derives and caches the intermediate keys. All
// chain mutations run on a clone committed only after the tag verifies.
func Decrypt(
	st *domain.SessionState,
	skipped domain.SkippedKeyStore,
	ad []byte,
	env domain.Envelope,
) ([]byte, error) {
	remote, err := crypto.PublicKeyFromWire(env.Header.DHPublicKey)
	if err != nil {
		return nil, err
	}
	if len(env.IV) != nonceSeedSize {
		return nil, fmt.Errorf("%w: bad IV length %d", domain.ErrAuthenticationFailed, len(env.IV))
	}

	gen, seen := st.RemoteGenerations[remote]
	if seen && (remote != st.PeerDHPub || env.Header.MessageCounter < st.Recv.Index) {
		return openSkipped(skipped, gen, ad, env)
	}

	work := st.Clone()
	var pending []cachedKey
	fail := func(err error) ([]byte, error) {
		zeroPending(pending)
		work.Zero()
		return nil, err
	}

	if !seen {
		// New remote ratchet key: close out the old receiving chain, then
		// reseed both chains. A replay of a header key we have already
		// ratcheted to can never reach this branch.
		if pending, err = skipAhead(work, env.Header.PreviousCounter, pending); err != nil {
			return fail(err)
		}
		if err := reseedFromRemote(work, remote); err != nil {
			return fail(err)
		}
	}

	if pending, err = skipAhead(work, env.Header.MessageCounter, pending); err != nil {
		return fail(err)
	}

	mk, err := step(&work.Recv)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrRatchetFailure, err))
	}
	plaintext, err := open(mk, env.Header, ad, env.IV, env.Ciphertext)
	mk.Zero()
	if err != nil {
		return fail(fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err))
	}

	for _, ck := range pending {
		skipped.Put(ck.gen, ck.ctr, ck.mk)
	}
	st.ReplaceWith(work)
	return plaintext, nil
}

type cachedKey struct {
	gen uint32
	ctr uint32
	mk  domain.MessageKey
}

// skipAhead derives message keys on the receiving chain up to (but not
// including) target, collecting them for the skipped-key store. An unseeded
// chain has nothing to derive and is left alone.
func skipAhead(st *domain.SessionState, target uint32, out []cachedKey) ([]cachedKey, error) {
	if len(st.Recv.Key) == 0 || st.Recv.Index >= target {
		return out, nil
	}
	if target-st.Recv.Index > maxSkip {
		return out, fmt.Errorf("%w: counter gap %d exceeds limit", domain.ErrStaleMessage, target-st.Recv.Index)
	}
	for st.Recv.Index < target {
		ctr := st.Recv.Index
		mk, err := step(&st.Recv)
		if err != nil {
			return out, fmt.Errorf("%w: %v", domain.ErrRatchetFailure, err)
		}
		out = append(out, cachedKey{gen: st.RecvGeneration, ctr: ctr, mk: mk})
	}
	return out, nil
}

// openSkipped serves a message whose key was derived earlier. Take is
// single-use; on tag failure the key is restored so a forgery cannot burn a
// legitimate message's key.
func openSkipped(skipped domain.SkippedKeyStore, gen uint32, ad []byte, env domain.Envelope) ([]byte, error) {
	mk, ok := skipped.Take(gen, env.Header.MessageCounter)
	if !ok {
		return nil, fmt.Errorf("%w: generation %d counter %d", domain.ErrStaleMessage, gen, env.Header.MessageCounter)
	}
	plaintext, err := open(mk, env.Header, ad, env.IV, env.Ciphertext)
	if err != nil {
		skipped.Put(gen, env.Header.MessageCounter, mk)
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthenticationFailed, err)
	}
	mk.Zero()
	return plaintext, nil
}

func zeroPending(pending []cachedKey) {
	for i := range pending {
		pending[i].mk.Zero()
	}
}

// --- AEAD helpers ---

func seal(mk domain.MessageKey, header domain.RatchetHeader, ad, iv, plaintext []byte) []byte {
	aead, err := chacha20poly1305.New(mk.Key)
	if err != nil {
		// Key size is fixed by construction.
		panic(err)
	}
	return aead.Seal(nil, nonceFor(mk, iv), plaintext, append(append([]byte(nil), ad...), headerBytes(header)...))
}

func open(mk domain.MessageKey, header domain.RatchetHeader, ad, iv, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk.Key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonceFor(mk, iv), ciphertext, append(append([]byte(nil), ad...), headerBytes(header)...))
}

// nonceFor XORs the derived nonce seed with the envelope's random IV: the
// nonce stays unique per key even if the random source misbehaves, and the
// wire still carries a random-looking IV.
func nonceFor(mk domain.MessageKey, iv []byte) []byte {
	nonce := make([]byte, nonceSeedSize)
	for i := range nonce {
		nonce[i] = mk.NonceSeed[i] ^ iv[i]
	}
	return nonce
}

func headerBytes(h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(h.DHPublicKey)+8)
	out = append(out, h.DHPublicKey...)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.PreviousCounter)
	out = append(out, b[:]...)
	binary.BigEndian.PutUint32(b[:], h.MessageCounter)
	return append(out, b[:]...)
}
