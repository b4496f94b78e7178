package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration, read once at startup.
type Config struct {
	// Home is the keystore directory.
	Home string `yaml:"home"`

	Log        LogConfig        `yaml:"log"`
	Encryption EncryptionConfig `yaml:"encryption"`
	Session    SessionConfig    `yaml:"session"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	NATS       NATSConfig       `yaml:"nats"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// EncryptionConfig holds the encryption policy.
type EncryptionConfig struct {
	Enabled        bool `yaml:"enabled"`
	AllowPlaintext bool `yaml:"allow_plaintext"`
	AutoEstablish  bool `yaml:"auto_establish"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	CacheSize            int `yaml:"cache_size"`
	CacheTTLSeconds      int `yaml:"cache_ttl_seconds"`
	IdleTimeoutSeconds   int `yaml:"idle_timeout_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

// RateLimitConfig caps per-agent traffic.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL             string `yaml:"url"`
	SubjectPrefix   string `yaml:"subject_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
	ReconnectWaitMS int    `yaml:"reconnect_wait_ms"`
	MaxReconnects   int    `yaml:"max_reconnects"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Encryption: EncryptionConfig{
			Enabled:        true,
			AllowPlaintext: true,
			AutoEstablish:  true,
		},
		Session: SessionConfig{
			CacheSize:            1000,
			CacheTTLSeconds:      600,
			IdleTimeoutSeconds:   1800,
			SweepIntervalSeconds: 60,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 600,
			Burst:     60,
		},
		NATS: NATSConfig{
			URL:             "nats://127.0.0.1:4222",
			SubjectPrefix:   "ratchetd",
			ReconnectWaitMS: 2000,
			MaxReconnects:   -1, // unlimited
		},
	}
}

// LoadConfig overlays the YAML file at path onto the defaults. A missing
// file is not an error; the defaults stand.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
