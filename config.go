package accounts

import (
	"crypto/subtle"
	"errors"
	"time"
)

// Config is the explicit configuration injected into the [Service] at
// construction time. There is no process-wide default state; every secret,
// TTL, and work factor lives here.
//
// Config instances are treated as immutable after [Builder.Build]; the
// builder clones secret material so later mutation of the caller's copy
// has no effect.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures the dual-class token issuer. AccessSecret and
// RefreshSecret are independent HMAC keys: access-token compromise cannot
// forge refresh tokens and vice versa.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the argon2id work factors.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the Redis-backed refresh-token store.
type SessionConfig struct {
	RedisPrefix string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a baseline configuration. Secrets are empty and
// must be supplied by the caller; Build fails otherwise.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 10 * 24 * time.Hour,
			Issuer:     "accounts",
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Session: SessionConfig{
			RedisPrefix: "acct",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 {
		return errors.New("Token.AccessSecret is required")
	}
	if len(c.Token.RefreshSecret) == 0 {
		return errors.New("Token.RefreshSecret is required")
	}
	if len(c.Token.AccessSecret) == len(c.Token.RefreshSecret) &&
		subtle.ConstantTimeCompare(c.Token.AccessSecret, c.Token.RefreshSecret) == 1 {
		return errors.New("Token.AccessSecret and Token.RefreshSecret must be independent keys")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token.AccessTTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token.RefreshTTL must be positive")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("Token.RefreshTTL must exceed Token.AccessTTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token.Leeway out of range")
	}
	if c.Password.Memory < 8*1024 {
		return errors.New("Password.Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password.Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password.Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password.SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password.KeyLength must be >= 16")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session.RedisPrefix is required")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
