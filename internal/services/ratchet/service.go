package ratchet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
	"ratchetd/internal/protocol/handshake"
	protocol "ratchetd/internal/protocol/ratchet"
	"ratchetd/internal/util/memzero"
)

// Config carries the policy knobs, read once at construction.
type Config struct {
	// Enabled turns encryption on. When off, messages pass through both
	// directions unchanged.
	Enabled bool

	// AllowPlaintext accepts legacy unencrypted payloads from peers that do
	// not support encryption.
	AllowPlaintext bool

	// AutoEstablish creates a responder-role session on the first encrypted
	// message from an unknown agent.
	AutoEstablish bool

	// RatePerMinute caps each agent's message budget; zero disables the
	// limiter. RateBurst bounds short spikes.
	RatePerMinute int
	RateBurst     int
}

// Service encrypts and decrypts agent traffic over per-agent ratchet
// sessions.
type Service struct {
	sessions domain.SessionStore
	identity domain.Identity
	cfg      Config
	log      zerolog.Logger

	mu       sync.Mutex
	limiters map[domain.AgentID]*rate.Limiter

	authFailures atomic.Uint64
}

// New constructs the service around a session store and the long-term
// identity pair.
func New(sessions domain.SessionStore, identity domain.Identity, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		sessions: sessions,
		identity: identity,
		cfg:      cfg,
		log:      log,
		limiters: make(map[domain.AgentID]*rate.Limiter),
	}
}

// EstablishSession starts an initiator-role session with an agent whose
// static public key is known out of band. Idempotent: an existing session is
// left untouched.
func (s *Service) EstablishSession(ctx context.Context, agent domain.AgentID, peerPub domain.X25519Public) (bool, error) {
	created, err := s.sessions.GetOrCreate(ctx, agent, func() (*domain.SessionState, error) {
		root, priv, pub, err := handshake.InitiatorHello(peerPub)
		if err != nil {
			return nil, err
		}
		st, err := protocol.InitInitiator(agent, root, priv, pub, peerPub)
		memzero.Zero(root)
		return st, err
	})
	if err != nil {
		return false, fmt.Errorf("establish session for %q: %w", agent, err)
	}
	if created {
		s.log.Info().
			Str("agent", agent.String()).
			Str("peer_key", crypto.Fingerprint(peerPub.Slice())).
			Msg("established session")
	}
	return created, nil
}

// EncryptMessage advances the agent's sending chain and seals plaintext.
// With encryption disabled the plaintext passes through as a legacy message.
func (s *Service) EncryptMessage(ctx context.Context, agent domain.AgentID, plaintext []byte) (domain.Message, error) {
	if !s.cfg.Enabled {
		return domain.Message{Plaintext: plaintext}, nil
	}
	if err := s.allow(agent); err != nil {
		return domain.Message{}, err
	}

	var env domain.Envelope
	err := s.sessions.With(ctx, agent, func(st *domain.SessionState, _ domain.SkippedKeyStore) error {
		var err error
		env, err = protocol.Encrypt(st, nil, plaintext)
		return err
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("encrypt for %q: %w", agent, err)
	}
	return domain.Message{Envelope: &env}, nil
}

// DecryptMessage resolves the message key and opens the envelope. Legacy
// plaintext passes through unchanged when backward compatibility is on; an
// unknown agent gets a responder-role session when auto-establishment is on.
func (s *Service) DecryptMessage(ctx context.Context, agent domain.AgentID, msg domain.Message) ([]byte, error) {
	if !msg.IsEncrypted() {
		if !s.cfg.Enabled || s.cfg.AllowPlaintext {
			return msg.Plaintext, nil
		}
		return nil, fmt.Errorf("plaintext from %q: %w", agent, domain.ErrEncryptionRequired)
	}
	if err := s.allow(agent); err != nil {
		return nil, err
	}

	if s.cfg.AutoEstablish && !s.sessions.Exists(agent) {
		if err := s.establishResponder(ctx, agent, msg.Envelope.Header); err != nil {
			return nil, err
		}
	}

	var plaintext []byte
	err := s.sessions.With(ctx, agent, func(st *domain.SessionState, skipped domain.SkippedKeyStore) error {
		var err error
		plaintext, err = protocol.Decrypt(st, skipped, nil, *msg.Envelope)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			s.authFailures.Add(1)
			s.log.Warn().Str("agent", agent.String()).Msg("dropped message failing authentication")
		}
		return nil, fmt.Errorf("decrypt from %q: %w", agent, err)
	}
	return plaintext, nil
}

// TerminateSession destroys the agent's session and zeroes its secrets.
func (s *Service) TerminateSession(ctx context.Context, agent domain.AgentID) error {
	existed, err := s.sessions.Destroy(ctx, agent)
	if err != nil {
		return fmt.Errorf("terminate session for %q: %w", agent, err)
	}
	s.mu.Lock()
	delete(s.limiters, agent)
	s.mu.Unlock()
	if existed {
		s.log.Info().Str("agent", agent.String()).Msg("terminated session")
	}
	return nil
}

// AuthFailureCount reports how many inbound messages failed authentication
// since construction.
func (s *Service) AuthFailureCount() uint64 { return s.authFailures.Load() }

// establishResponder builds a session from our static key and the sender's
// ratchet key out of the first header. GetOrCreate makes the racing case
// (two first messages at once) collapse to one session.
func (s *Service) establishResponder(ctx context.Context, agent domain.AgentID, header domain.RatchetHeader) error {
	_, err := s.sessions.GetOrCreate(ctx, agent, func() (*domain.SessionState, error) {
		pub, err := crypto.PublicKeyFromWire(header.DHPublicKey)
		if err != nil {
			return nil, err
		}
		root, err := handshake.ResponderRoot(s.identity, pub)
		if err != nil {
			return nil, err
		}
		st, err := protocol.InitResponder(agent, root, s.identity, pub)
		memzero.Zero(root)
		if err == nil {
			s.log.Info().
				Str("agent", agent.String()).
				Str("peer_key", crypto.Fingerprint(pub.Slice())).
				Msg("established responder session")
		}
		return st, err
	})
	if err != nil {
		return fmt.Errorf("establish responder session for %q: %w", agent, err)
	}
	return nil
}

// allow charges one message against the agent's token bucket.
func (s *Service) allow(agent domain.AgentID) error {
	if s.cfg.RatePerMinute <= 0 {
		return nil
	}
	s.mu.Lock()
	lim, ok := s.limiters[agent]
	if !ok {
		burst := s.cfg.RateBurst
		if burst <= 0 {
			burst = s.cfg.RatePerMinute
		}
		lim = rate.NewLimiter(rate.Limit(float64(s.cfg.RatePerMinute)/60.0), burst)
		s.limiters[agent] = lim
	}
	s.mu.Unlock()
	if !lim.Allow() {
		return fmt.Errorf("agent %q: %w", agent, domain.ErrRateLimited)
	}
	return nil
}

// Compile-time assertion that Service implements domain.RatchetService.
var _ domain.RatchetService = (*Service)(nil)
