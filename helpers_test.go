package authkit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/deskforge/authkit/directory"
	"github.com/deskforge/authkit/password"
	"github.com/deskforge/authkit/session"
	"github.com/deskforge/authkit/token"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct-horse-battery"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("test-secret")
	// cheapest valid argon2 parameters, the hash still round-trips
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false
	return cfg
}

type testEnv struct {
	gateway *Gateway
	redis   *miniredis.Miniredis
	dir     *directory.Memory
	sink    *ChannelSink
}

func newTestGateway(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("argon2 init: %v", err)
	}
	hash, err := hasher.Hash(testPassword)
	if err != nil {
		t.Fatalf("argon2 hash: %v", err)
	}

	dir := directory.NewMemory()
	dir.Put(directory.Principal{
		ID:           "agent-1",
		Email:        testEmail,
		Name:         "Alice",
		PasswordHash: hash,
		Status:       directory.StatusActive,
		CreatedAt:    time.Now(),
	})

	builder := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir)

	var sink *ChannelSink
	if cfg.Audit.Enabled {
		sink = NewChannelSink(cfg.Audit.BufferSize)
		builder = builder.WithAuditSink(sink)
	}

	gateway, err := builder.Build()
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}
	t.Cleanup(gateway.Close)

	return &testEnv{gateway: gateway, redis: mr, dir: dir, sink: sink}
}

func tokenIssueLegacy() token.IssueOptions {
	return token.IssueOptions{RememberMe: true}
}

// seedState writes an auth state document directly, bypassing the gateway.
// Used to model principals migrated from the single-slot era.
func seedState(t *testing.T, env *testEnv, principalID string, st *session.AuthState) {
	t.Helper()
	_, ver, err := env.gateway.store.Load(context.Background(), principalID)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if err := env.gateway.store.Replace(context.Background(), principalID, ver, st, time.Hour); err != nil {
		t.Fatalf("seed state: %v", err)
	}
}

func loadState(t *testing.T, env *testEnv, principalID string) *session.AuthState {
	t.Helper()
	st, _, err := env.gateway.store.Load(context.Background(), principalID)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return st
}

func mustLogin(t *testing.T, env *testEnv, opts LoginOptions) *Credentials {
	t.Helper()
	creds, err := env.gateway.Login(context.Background(), testEmail, testPassword, opts)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return creds
}
