package domain

import (
	"time"

	"github.com/google/uuid"

	"ratchetd/internal/util/memzero"
)

// AgentID identifies a remote agent. Exactly one session exists per agent.
type AgentID string

// String returns the string form of the agent identifier.
func (a AgentID) String() string { return string(a) }

// ChainState is one KDF chain: a 32-byte chain key plus the count of message
// keys derived under it. A nil Key means the chain is not yet seeded.
type ChainState struct {
	Key   []byte
	Index uint32
}

// MessageKey is a single-use AEAD key with its derived nonce seed.
type MessageKey struct {
	Key       []byte // 32 bytes
	NonceSeed []byte // 12 bytes; XORed with the envelope IV to form the nonce
}

// Zero wipes the key material in place.
func (k *MessageKey) Zero() {
	memzero.Zero(k.Key)
	memzero.Zero(k.NonceSeed)
	k.Key = nil
	k.NonceSeed = nil
}

// SessionState holds all ratchet state for one agent. It is owned exclusively
// by the session store; no other component retains a reference across calls,
// and it is never serialized or logged.
type SessionState struct {
	ID    uuid.UUID
	Agent AgentID

	RootKey   []byte
	DHPriv    X25519Private
	DHPub     X25519Public
	PeerDHPub X25519Public

	Send ChainState
	Recv ChainState

	// PrevChainLen counts messages sent under the prior sending chain, for
	// the peer's skipped-key bookkeeping.
	PrevChainLen uint32

	// RecvGeneration increments on every receive-side DH ratchet step and
	// indexes skipped keys in the cache.
	RecvGeneration uint32

	// RemoteGenerations maps each remote ratchet key we have seen to the
	// receive generation it introduced, so late messages from an old chain
	// resolve against cached keys instead of re-triggering a ratchet step.
	RemoteGenerations map[X25519Public]uint32

	CreatedAt  time.Time
	LastActive time.Time
}

// Clone returns a deep copy. Decryption works on a clone and commits it only
// after the AEAD tag verifies, so a failed decrypt leaves the session intact.
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.RootKey = append([]byte(nil), s.RootKey...)
	c.Send.Key = append([]byte(nil), s.Send.Key...)
	c.Recv.Key = append([]byte(nil), s.Recv.Key...)
	c.RemoteGenerations = make(map[X25519Public]uint32, len(s.RemoteGenerations))
	for k, v := range s.RemoteGenerations {
		c.RemoteGenerations[k] = v
	}
	return &c
}

// Zero wipes every secret in the state.
func (s *SessionState) Zero() {
	memzero.Zero(s.RootKey)
	memzero.Zero(s.Send.Key)
	memzero.Zero(s.Recv.Key)
	memzero.Zero(s.DHPriv[:])
	s.RootKey = nil
	s.Send.Key = nil
	s.Recv.Key = nil
}

// ReplaceWith installs a clone's contents, wiping the buffers it replaces.
// The clone must not share backing arrays with s.
func (s *SessionState) ReplaceWith(c *SessionState) {
	memzero.Zero(s.RootKey)
	memzero.Zero(s.Send.Key)
	memzero.Zero(s.Recv.Key)
	*s = *c
}
