package authkit

import (
	"errors"
	"time"
)

// Config carries every tunable of the gateway. Zero values are filled from
// DefaultConfig by the builder; the struct is treated as immutable after
// Build.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig controls signing and lifetimes of issued credential pairs.
type TokenConfig struct {
	SigningMethod string // "hs256" or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	AccessTTL     time.Duration
	// RefreshTTL applies when the client did not ask to be remembered.
	RefreshTTL time.Duration
	// RememberedRefreshTTL applies when rememberMe is set.
	RememberedRefreshTTL time.Duration
	Leeway               time.Duration
}

// SessionConfig controls the per-principal session collection.
type SessionConfig struct {
	// MaxPerPrincipal caps live sessions per principal. Attaching beyond the
	// cap evicts the session with the smallest LastUsedAt.
	MaxPerPrincipal int
	RedisPrefix     string
	// CASRetryLimit bounds the compare-and-swap loop. Exhaustion surfaces as
	// ErrTokenConflict on rotation and ErrStoreUnavailable elsewhere.
	CASRetryLimit int
	// DocTTLGrace extends the stored document's TTL past the latest session
	// expiry so lazy pruning can still observe expired entries.
	DocTTLGrace time.Duration
}

// PasswordConfig carries the argon2id parameters of the default verifier.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: 15 minute access tokens,
// 1 day / 30 day refresh lifetimes, a 5-session cap, and audit + metrics
// enabled.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod:        "ed25519",
			Issuer:               "deskforge",
			AccessTTL:            15 * time.Minute,
			RefreshTTL:           24 * time.Hour,
			RememberedRefreshTTL: 30 * 24 * time.Hour,
			Leeway:               30 * time.Second,
		},
		Session: SessionConfig{
			MaxPerPrincipal: 5,
			RedisPrefix:     "hd:auth",
			CASRetryLimit:   5,
			DocTTLGrace:     24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

func (c *Config) validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("token access TTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 || c.Token.RememberedRefreshTTL <= 0 {
		return errors.New("refresh TTLs must be positive")
	}
	if c.Token.RefreshTTL > c.Token.RememberedRefreshTTL {
		return errors.New("remembered refresh TTL must not be shorter than the default")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token leeway out of range")
	}
	if c.Session.MaxPerPrincipal <= 0 {
		return errors.New("session cap must be positive")
	}
	if c.Session.CASRetryLimit <= 0 {
		return errors.New("CAS retry limit must be positive")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("redis prefix must not be empty")
	}
	return nil
}
