package domain

import "context"

// SessionStore owns the full set of per-agent session states.
//
// Operations on distinct agents never block on each other; all work on one
// agent's state is serialized through With. Implementations destroy state by
// zeroing every secret.
type SessionStore interface {
	// GetOrCreate ensures a session exists for agent, building fresh state
	// with init when absent. It reports whether a new session was created.
	GetOrCreate(ctx context.Context, agent AgentID, init func() (*SessionState, error)) (created bool, err error)

	// With runs fn while holding the agent's session exclusively. It fails
	// with ErrSessionNotEstablished when no session exists and ErrSessionBusy
	// when ctx expires before the lock is acquired.
	With(ctx context.Context, agent AgentID, fn func(st *SessionState, skipped SkippedKeyStore) error) error

	Exists(agent AgentID) bool

	// Destroy zeroes and removes the agent's session, reporting whether one
	// existed.
	Destroy(ctx context.Context, agent AgentID) (bool, error)
}

// SkippedKeyStore caches derived-but-unused message keys for out-of-order
// delivery, indexed by receive-chain generation and message counter.
type SkippedKeyStore interface {
	Put(generation, counter uint32, mk MessageKey)
	// Take removes and returns the entry; a miss means the key was never
	// derived, already consumed, or evicted.
	Take(generation, counter uint32) (MessageKey, bool)
}

// IdentityStore persists the service's long-term static key pair, sealed
// under a passphrase.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// RatchetService encrypts and decrypts agent traffic.
type RatchetService interface {
	// EstablishSession starts an initiator-role session with an agent whose
	// static public key is known. Idempotent: established is false when a
	// session already existed.
	EstablishSession(ctx context.Context, agent AgentID, peerPub X25519Public) (established bool, err error)

	// EncryptMessage advances the sending chain and seals plaintext. When
	// encryption is disabled it returns the plaintext unchanged as a legacy
	// message.
	EncryptMessage(ctx context.Context, agent AgentID, plaintext []byte) (Message, error)

	// DecryptMessage resolves the message key and opens the envelope.
	// Legacy plaintext passes through unchanged when backward compatibility
	// is enabled.
	DecryptMessage(ctx context.Context, agent AgentID, msg Message) ([]byte, error)

	// TerminateSession destroys the agent's session and zeroes its secrets.
	TerminateSession(ctx context.Context, agent AgentID) error
}

// Connector carries opaque wire payloads to and from agents, preserving
// per-agent order only.
type Connector interface {
	Run(ctx context.Context) error
	Close()
}
