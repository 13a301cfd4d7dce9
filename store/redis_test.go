package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/deskforge/authkit/session"
)

func testStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "test:auth"), mr
}

func sampleState(token string) *session.AuthState {
	return &session.AuthState{
		LegacyToken: token,
		Sessions: []session.Session{{
			ID:           "s1",
			RefreshToken: token,
			CreatedAt:    time.Now().UTC(),
			LastUsedAt:   time.Now().UTC(),
			ExpiresAt:    time.Now().UTC().Add(time.Hour),
		}},
	}
}

func TestLoadAbsentPrincipal(t *testing.T) {
	st, _ := testStore(t)

	state, ver, err := st.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if !state.Empty() {
		t.Fatal("expected empty state")
	}
	if ver != nil {
		t.Fatalf("expected nil version, got %q", ver)
	}
}

func TestReplaceCreateThenLoad(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	if err := st.Replace(ctx, "agent-1", nil, sampleState("tok-1"), time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}

	state, ver, err := st.Load(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}
	if state.LegacyToken != "tok-1" || len(state.Sessions) != 1 {
		t.Fatalf("round trip lost data: %+v", state)
	}
	if len(ver) == 0 {
		t.Fatal("expected a non-empty version for an existing document")
	}
}

func TestReplaceStaleVersionConflicts(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	if err := st.Replace(ctx, "agent-1", nil, sampleState("tok-1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	_, ver, err := st.Load(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}

	// another writer gets in between
	if err := st.Replace(ctx, "agent-1", ver, sampleState("tok-2"), time.Hour); err != nil {
		t.Fatal(err)
	}

	err = st.Replace(ctx, "agent-1", ver, sampleState("tok-3"), time.Hour)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale version: got %v, want ErrConflict", err)
	}

	state, _, err := st.Load(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}
	if state.LegacyToken != "tok-2" {
		t.Fatalf("losing write mutated state: %q", state.LegacyToken)
	}
}

func TestReplaceCreateRace(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	if err := st.Replace(ctx, "agent-1", nil, sampleState("tok-1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	// expected-absent against an existing key must conflict
	err := st.Replace(ctx, "agent-1", nil, sampleState("tok-2"), time.Hour)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestReplaceEmptyStateDeletes(t *testing.T) {
	st, mr := testStore(t)
	ctx := context.Background()

	if err := st.Replace(ctx, "agent-1", nil, sampleState("tok-1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	_, ver, err := st.Load(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := st.Replace(ctx, "agent-1", ver, &session.AuthState{}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("test:auth:agent-1") {
		t.Fatal("empty state must delete the key")
	}

	state, ver, err := st.Load(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}
	if !state.Empty() || ver != nil {
		t.Fatal("deleted document should read back as absent")
	}
}

func TestReplaceSetsTTL(t *testing.T) {
	st, mr := testStore(t)
	ctx := context.Background()

	if err := st.Replace(ctx, "agent-1", nil, sampleState("tok-1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	ttl := mr.TTL("test:auth:agent-1")
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("ttl %v, want (0, 1h]", ttl)
	}
}

func TestConcurrentReplaceSingleWinner(t *testing.T) {
	st, _ := testStore(t)
	ctx := context.Background()

	if err := st.Replace(ctx, "agent-1", nil, sampleState("tok-0"), time.Hour); err != nil {
		t.Fatal(err)
	}
	_, ver, err := st.Load(ctx, "agent-1")
	if err != nil {
		t.Fatal(err)
	}

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			next := sampleState("tok-" + string(rune('a'+i)))
			results <- st.Replace(ctx, "agent-1", ver, next, time.Hour)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
