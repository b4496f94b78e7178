package app

import (
	"time"

	"github.com/rs/zerolog"

	"ratchetd/internal/domain"
	"ratchetd/internal/session"
	ratchetsvc "ratchetd/internal/services/ratchet"
	"ratchetd/internal/store"
)

// Wire bundles the stores and services the commands use.
type Wire struct {
	Keystore domain.IdentityStore
	Sessions *session.Store
	Sweeper  *session.Sweeper
	Service  *ratchetsvc.Service
	Config   *Config
}

// NewWire constructs the dependency graph from cfg and the unsealed
// identity.
func NewWire(cfg *Config, identity domain.Identity, log zerolog.Logger) *Wire {
	sessions := session.NewStore(
		cfg.Session.CacheSize,
		time.Duration(cfg.Session.CacheTTLSeconds)*time.Second,
	)
	sweeper := session.NewSweeper(
		sessions,
		time.Duration(cfg.Session.SweepIntervalSeconds)*time.Second,
		time.Duration(cfg.Session.IdleTimeoutSeconds)*time.Second,
		log,
	)
	svc := ratchetsvc.New(sessions, identity, ratchetsvc.Config{
		Enabled:        cfg.Encryption.Enabled,
		AllowPlaintext: cfg.Encryption.AllowPlaintext,
		AutoEstablish:  cfg.Encryption.AutoEstablish,
		RatePerMinute:  cfg.RateLimit.PerMinute,
		RateBurst:      cfg.RateLimit.Burst,
	}, log)

	return &Wire{
		Keystore: store.NewKeystore(cfg.Home),
		Sessions: sessions,
		Sweeper:  sweeper,
		Service:  svc,
		Config:   cfg,
	}
}
