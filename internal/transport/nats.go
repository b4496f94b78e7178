package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"ratchetd/internal/codec"
	"ratchetd/internal/domain"
)

// Config holds NATS connection settings.
type Config struct {
	URL             string
	SubjectPrefix   string
	CredentialsFile string
	ReconnectWait   time.Duration
	MaxReconnects   int

	// OpTimeout bounds how long a handler waits for a busy session before
	// dropping the message.
	OpTimeout time.Duration
}

// Bridge shuttles payloads between agents and the application, running every
// message through the ratchet service.
type Bridge struct {
	conn   *nats.Conn
	svc    domain.RatchetService
	prefix string
	opTO   time.Duration
	log    zerolog.Logger
	subs   []*nats.Subscription
}

// Dial connects to NATS and returns a bridge over svc.
func Dial(cfg Config, svc domain.RatchetService, log zerolog.Logger) (*Bridge, error) {
	opts := []nats.Option{
		nats.Name("ratchetd"),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredentialsFile))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	opTO := cfg.OpTimeout
	if opTO <= 0 {
		opTO = time.Second
	}
	return &Bridge{
		conn:   conn,
		svc:    svc,
		prefix: cfg.SubjectPrefix,
		opTO:   opTO,
		log:    log,
	}, nil
}

// Run subscribes both directions and blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	inbound, err := b.conn.Subscribe(b.prefix+".in.*", b.handleInbound)
	if err != nil {
		return fmt.Errorf("subscribe inbound: %w", err)
	}
	b.subs = append(b.subs, inbound)

	outbound, err := b.conn.Subscribe(b.prefix+".send.*", b.handleOutbound)
	if err != nil {
		return fmt.Errorf("subscribe outbound: %w", err)
	}
	b.subs = append(b.subs, outbound)

	b.log.Info().Str("prefix", b.prefix).Msg("bridge running")
	<-ctx.Done()
	return nil
}

// Close drains subscriptions and closes the connection.
func (b *Bridge) Close() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.conn.Close()
}

func (b *Bridge) handleInbound(m *nats.Msg) {
	agent, ok := b.agentFromSubject(m.Subject)
	if !ok {
		return
	}
	msg, err := codec.Decode(m.Data)
	if err != nil {
		b.log.Warn().Err(err).Str("agent", agent.String()).Msg("dropped undecodable payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.opTO)
	defer cancel()
	plaintext, err := b.svc.DecryptMessage(ctx, agent, msg)
	if err != nil {
		b.log.Warn().Err(err).Str("agent", agent.String()).Msg("dropped inbound message")
		return
	}
	if err := b.conn.Publish(b.prefix+".plain."+agent.String(), plaintext); err != nil {
		b.log.Error().Err(err).Str("agent", agent.String()).Msg("publish plaintext failed")
	}
}

func (b *Bridge) handleOutbound(m *nats.Msg) {
	agent, ok := b.agentFromSubject(m.Subject)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.opTO)
	defer cancel()
	msg, err := b.svc.EncryptMessage(ctx, agent, m.Data)
	if err != nil {
		b.log.Warn().Err(err).Str("agent", agent.String()).Msg("dropped outbound message")
		return
	}
	wire, err := codec.Encode(msg)
	if err != nil {
		b.log.Error().Err(err).Str("agent", agent.String()).Msg("encode envelope failed")
		return
	}
	if err := b.conn.Publish(b.prefix+".out."+agent.String(), wire); err != nil {
		b.log.Error().Err(err).Str("agent", agent.String()).Msg("publish envelope failed")
	}
}

// agentFromSubject extracts the agent identifier from the final subject
// token.
func (b *Bridge) agentFromSubject(subject string) (domain.AgentID, bool) {
	idx := strings.LastIndexByte(subject, '.')
	if idx < 0 || idx == len(subject)-1 {
		return "", false
	}
	return domain.AgentID(subject[idx+1:]), true
}

// Compile-time assertion that Bridge implements domain.Connector.
var _ domain.Connector = (*Bridge)(nil)
