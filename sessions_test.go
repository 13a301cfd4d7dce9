package authkit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestListSessionsSanitizedAndOrdered(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	first := mustLogin(t, env, LoginOptions{
		Device: DeviceSignal{UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120", IP: "203.0.113.7"},
	})
	second := mustLogin(t, env, LoginOptions{
		Device: DeviceSignal{UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/604.1", IP: "198.51.100.23"},
	})

	views, err := env.gateway.ListSessions(ctx, "agent-1", second.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(views))
	}

	// most recently used first
	if views[0].ID != second.SessionID || views[1].ID != first.SessionID {
		t.Fatalf("wrong ordering: %s, %s", views[0].ID, views[1].ID)
	}
	if !views[0].Current {
		t.Fatal("caller's session must be flagged current")
	}
	if views[1].Current {
		t.Fatal("other sessions must not be flagged current")
	}

	for _, v := range views {
		if strings.Contains(v.IP, "203.0.113.7") || strings.Contains(v.IP, "198.51.100.23") {
			t.Fatalf("full IP leaked: %q", v.IP)
		}
		if !strings.Contains(v.IP, "*") {
			t.Fatalf("IP not masked: %q", v.IP)
		}
	}
	if views[0].OS != "iOS" && views[0].Device != "Mobile" {
		t.Fatalf("device classification missing: %+v", views[0])
	}
}

func TestListSessionsPrunesExpired(t *testing.T) {
	env := newTestGateway(t, func(cfg *Config) {
		cfg.Token.RefreshTTL = 50 * time.Millisecond
	})
	ctx := context.Background()

	mustLogin(t, env, LoginOptions{})
	remembered := mustLogin(t, env, LoginOptions{RememberMe: true})
	time.Sleep(120 * time.Millisecond)

	views, err := env.gateway.ListSessions(ctx, "agent-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("expected only the remembered session, got %d", len(views))
	}
	if views[0].ID != remembered.SessionID {
		t.Fatal("wrong session survived")
	}

	// the prune was persisted, not just filtered from the response
	st := loadState(t, env, "agent-1")
	if len(st.Sessions) != 1 {
		t.Fatalf("expired session still stored, %d entries", len(st.Sessions))
	}
}

func TestListSessionsEmptyForUnknownPrincipal(t *testing.T) {
	env := newTestGateway(t)

	views, err := env.gateway.ListSessions(context.Background(), "never-seen", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatalf("expected empty listing, got %d", len(views))
	}
}

func TestRevokeSessionNotFound(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	mustLogin(t, env, LoginOptions{})

	err := env.gateway.RevokeSession(ctx, "agent-1", "no-such-session")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
	if CodeOf(err) != CodeNotFound {
		t.Fatalf("code %v, want NOT_FOUND", CodeOf(err))
	}
}

func TestRevokeLastSessionClearsLegacySlot(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	creds := mustLogin(t, env, LoginOptions{})

	st := loadState(t, env, "agent-1")
	if st.LegacyToken == "" {
		t.Fatal("legacy slot should mirror the only session")
	}

	if err := env.gateway.RevokeSession(ctx, "agent-1", creds.SessionID); err != nil {
		t.Fatal(err)
	}
	st = loadState(t, env, "agent-1")
	if st.LegacyToken != "" {
		t.Fatal("revoking the last session must clear the legacy slot")
	}
}

func TestMetricsCountGatewayActivity(t *testing.T) {
	env := newTestGateway(t)
	ctx := context.Background()

	creds := mustLogin(t, env, LoginOptions{})
	if _, err := env.gateway.Refresh(ctx, creds.RefreshToken); err != nil {
		t.Fatal(err)
	}
	_, _ = env.gateway.Login(ctx, testEmail, "not-the-password", LoginOptions{})

	snap := env.gateway.MetricsSnapshot()
	if got := snap.Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("login success counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricLoginFailure]; got != 1 {
		t.Fatalf("login failure counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricRefreshSuccess]; got != 1 {
		t.Fatalf("refresh success counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricSessionCreated]; got != 1 {
		t.Fatalf("session created counter = %d, want 1", got)
	}
}

func TestAuditEventsFlowToSink(t *testing.T) {
	env := newTestGateway(t, func(cfg *Config) {
		cfg.Audit.Enabled = true
	})
	ctx := context.Background()

	creds := mustLogin(t, env, LoginOptions{Device: DeviceSignal{IP: "203.0.113.7"}})
	if err := env.gateway.Logout(ctx, "agent-1", LogoutOptions{SessionID: creds.SessionID}); err != nil {
		t.Fatal(err)
	}
	env.gateway.Close()

	types := map[string]int{}
drain:
	for {
		select {
		case ev := <-env.sink.Events():
			types[ev.EventType]++
		default:
			break drain
		}
	}
	if types[EventLoginSuccess] != 1 {
		t.Fatalf("login audit events = %d, want 1", types[EventLoginSuccess])
	}
	if types[EventLogout] != 1 {
		t.Fatalf("logout audit events = %d, want 1", types[EventLogout])
	}
	if env.gateway.AuditDropped() != 0 {
		t.Fatalf("unexpected dropped events: %d", env.gateway.AuditDropped())
	}
}
