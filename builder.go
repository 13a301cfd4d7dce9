package authkit

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/deskforge/authkit/directory"
	internalaudit "github.com/deskforge/authkit/internal/audit"
	"github.com/deskforge/authkit/password"
	"github.com/deskforge/authkit/session"
	"github.com/deskforge/authkit/store"
	"github.com/deskforge/authkit/token"
)

// Builder assembles a Gateway. Configure with the With* methods, then call
// Build once; the resulting Gateway is immutable.
type Builder struct {
	cfg      Config
	cfgSet   bool
	redis    redis.UniversalClient
	store    store.AuthStore
	dir      directory.Directory
	verifier PasswordVerifier
	sink     AuditSink
}

// New starts a builder with DefaultConfig.
func New() *Builder {
	return &Builder{}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	b.cfgSet = true
	return b
}

// WithRedis supplies the Redis client backing the default auth store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the auth store entirely. Takes precedence over
// WithRedis.
func (b *Builder) WithStore(s store.AuthStore) *Builder {
	b.store = s
	return b
}

// WithDirectory supplies the principal lookup capability. Required.
func (b *Builder) WithDirectory(dir directory.Directory) *Builder {
	b.dir = dir
	return b
}

// WithPasswordVerifier overrides the default argon2id verifier.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink routes audit events to sink. Without one, audit events are
// dropped by a NoOpSink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// Build validates the configuration and wires the Gateway.
func (b *Builder) Build() (*Gateway, error) {
	cfg := b.cfg
	if !b.cfgSet {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if b.dir == nil {
		return nil, errors.New("directory is required")
	}

	tokens, err := token.NewService(token.Config{
		SigningMethod:        cfg.Token.SigningMethod,
		PrivateKey:           cfg.Token.PrivateKey,
		PublicKey:            cfg.Token.PublicKey,
		Issuer:               cfg.Token.Issuer,
		AccessTTL:            cfg.Token.AccessTTL,
		RefreshTTL:           cfg.Token.RefreshTTL,
		RememberedRefreshTTL: cfg.Token.RememberedRefreshTTL,
		Leeway:               cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	authStore := b.store
	if authStore == nil {
		if b.redis == nil {
			return nil, errors.New("either a Redis client or an auth store is required")
		}
		authStore = store.NewRedis(b.redis, cfg.Session.RedisPrefix)
	}

	verifier := b.verifier
	if verifier == nil {
		argon, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		verifier = argon
	}

	return &Gateway{
		cfg:    cfg,
		tokens: tokens,
		store:  authStore,
		dir:    b.dir,
		sessions: &session.Manager{
			Cap:           cfg.Session.MaxPerPrincipal,
			TTL:           cfg.Token.RefreshTTL,
			RememberedTTL: cfg.Token.RememberedRefreshTTL,
		},
		verifier: verifier,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.sink),
		metrics: NewMetrics(cfg.Metrics),
	}, nil
}
