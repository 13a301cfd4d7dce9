package authkit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/deskforge/authkit/directory"
	internalaudit "github.com/deskforge/authkit/internal/audit"
	"github.com/deskforge/authkit/session"
	"github.com/deskforge/authkit/store"
	"github.com/deskforge/authkit/token"
)

// Gateway is the authentication facade: login, refresh, logout, and
// session inspection against one shared auth store. Construct it with the
// Builder; a zero Gateway is not usable.
type Gateway struct {
	cfg      Config
	tokens   *token.Service
	store    store.AuthStore
	dir      directory.Directory
	sessions *session.Manager
	verifier PasswordVerifier
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
}

// Login authenticates the email/password pair, checks account standing,
// creates a session, and issues a credential pair. Lookup failures and
// password mismatches both surface as ErrInvalidCredentials so callers
// cannot probe which emails exist.
func (g *Gateway) Login(ctx context.Context, email, pass string, opts LoginOptions) (*Credentials, error) {
	if g == nil || g.tokens == nil {
		return nil, ErrGatewayNotReady
	}
	if email == "" || pass == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrMissingInput)
	}

	principal, err := g.dir.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			g.metrics.Inc(MetricLoginFailure)
			g.emitAudit(ctx, EventLoginFailure, false, "", "", opts.Device.IP, ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := g.verifier.Verify(pass, principal.PasswordHash)
	if err != nil || !ok {
		g.metrics.Inc(MetricLoginFailure)
		g.emitAudit(ctx, EventLoginFailure, false, principal.ID, "", opts.Device.IP, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if serr := accountStateError(principal.Status); serr != nil {
		g.metrics.Inc(MetricLoginFailure)
		g.emitAudit(ctx, EventLoginFailure, false, principal.ID, "", opts.Device.IP, serr, nil)
		return nil, serr
	}

	sessionID := uuid.NewString()
	pair, err := g.tokens.Issue(principal.ID, token.IssueOptions{
		RememberMe: opts.RememberMe,
		SessionID:  sessionID,
	})
	if err != nil {
		return nil, err
	}
	sess := g.sessions.Create(sessionID, pair.RefreshToken, opts.RememberMe, opts.Device)

	var evicted []session.Session
	var pruned int
	err = g.mutateState(ctx, principal.ID, func(st *session.AuthState) error {
		evicted, pruned = g.sessions.Attach(st, sess)
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.metrics.Inc(MetricLoginSuccess)
	g.metrics.Inc(MetricSessionCreated)
	g.metrics.Add(MetricSessionEvicted, uint64(len(evicted)))
	g.metrics.Add(MetricSessionPruned, uint64(pruned))
	g.emitAudit(ctx, EventLoginSuccess, true, principal.ID, sessionID, opts.Device.IP, nil, nil)
	for _, ev := range evicted {
		g.emitAudit(ctx, EventSessionEvicted, true, principal.ID, ev.ID, "", nil, map[string]string{
			"reason": "session cap",
		})
	}
	if pruned > 0 {
		g.emitAudit(ctx, EventSessionPruned, true, principal.ID, "", "", nil, map[string]string{
			"count": strconv.Itoa(pruned),
		})
	}

	return &Credentials{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		SessionID:        sessionID,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// Logout revokes credentials per the requested scope. Revoking an already
// absent session is not an error; logout is idempotent.
func (g *Gateway) Logout(ctx context.Context, principalID string, opts LogoutOptions) error {
	if g == nil || g.tokens == nil {
		return ErrGatewayNotReady
	}
	if principalID == "" {
		return fmt.Errorf("%w: principal id is required", ErrMissingInput)
	}

	var removed int
	err := g.mutateState(ctx, principalID, func(st *session.AuthState) error {
		switch {
		case opts.AllDevices:
			removed = g.sessions.RemoveAll(st)
		case opts.SessionID != "":
			if g.sessions.Remove(st, opts.SessionID) {
				removed = 1
			}
		default:
			g.sessions.ClearLegacy(st)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if opts.AllDevices {
		g.metrics.Inc(MetricLogoutAll)
		g.metrics.Add(MetricSessionRevoked, uint64(removed))
		g.emitAudit(ctx, EventLogoutAll, true, principalID, "", "", nil, map[string]string{
			"revoked": strconv.Itoa(removed),
		})
		return nil
	}
	g.metrics.Inc(MetricLogout)
	g.emitAudit(ctx, EventLogout, true, principalID, opts.SessionID, "", nil, nil)
	return nil
}

// ListSessions returns the principal's live sessions, most recently used
// first, with masked IPs and no token material. When currentSessionID is
// supplied the matching entry is flagged. Expired sessions found along the
// way are pruned opportunistically.
func (g *Gateway) ListSessions(ctx context.Context, principalID, currentSessionID string) ([]session.View, error) {
	if g == nil || g.tokens == nil {
		return nil, ErrGatewayNotReady
	}
	if principalID == "" {
		return nil, fmt.Errorf("%w: principal id is required", ErrMissingInput)
	}

	st, ver, err := g.store.Load(ctx, principalID)
	if err != nil {
		return nil, err
	}
	work := st.Clone()
	if pruned := g.sessions.PruneExpired(work); pruned > 0 {
		// best effort; a concurrent writer pruning first is fine
		if rerr := g.store.Replace(ctx, principalID, ver, work, g.docTTL(work)); rerr == nil {
			g.metrics.Add(MetricSessionPruned, uint64(pruned))
			g.emitAudit(ctx, EventSessionPruned, true, principalID, "", "", nil, map[string]string{
				"count": strconv.Itoa(pruned),
			})
		} else if !errors.Is(rerr, store.ErrConflict) {
			return nil, rerr
		}
	}
	return g.sessions.ListActive(work, currentSessionID), nil
}

// RevokeSession removes one named session, failing with ErrSessionNotFound
// when the principal has no live session with that id.
func (g *Gateway) RevokeSession(ctx context.Context, principalID, sessionID string) error {
	if g == nil || g.tokens == nil {
		return ErrGatewayNotReady
	}
	if principalID == "" || sessionID == "" {
		return fmt.Errorf("%w: principal and session ids are required", ErrMissingInput)
	}

	err := g.mutateState(ctx, principalID, func(st *session.AuthState) error {
		if !g.sessions.Remove(st, sessionID) {
			return ErrSessionNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.metrics.Inc(MetricSessionRevoked)
	g.emitAudit(ctx, EventSessionRevoked, true, principalID, sessionID, "", nil, nil)
	return nil
}

// VerifyAccess validates a bearer access token and returns its claims.
// Session-bound claims are NOT checked against the store; access tokens
// stay valid until expiry even after logout, which is what keeps this call
// a pure signature check.
func (g *Gateway) VerifyAccess(tokenStr string) (*token.Claims, error) {
	if g == nil || g.tokens == nil {
		return nil, ErrGatewayNotReady
	}
	claims, err := g.tokens.VerifyAccess(tokenStr)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return claims, nil
}

// MetricsSnapshot returns a copy of the in-process counters.
func (g *Gateway) MetricsSnapshot() MetricsSnapshot {
	return g.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under pressure.
func (g *Gateway) AuditDropped() uint64 {
	return g.audit.Dropped()
}

// Close flushes the audit dispatcher. The Gateway must not be used after.
func (g *Gateway) Close() {
	if g == nil {
		return
	}
	g.audit.Close()
}

// mutateState runs the load, transform, compare-and-swap cycle until the
// swap lands or the retry limit is hit. The mutate func sees a private
// clone and may return an error to abort without writing.
func (g *Gateway) mutateState(ctx context.Context, principalID string, mutate func(*session.AuthState) error) error {
	for attempt := 0; attempt < g.cfg.Session.CASRetryLimit; attempt++ {
		st, ver, err := g.store.Load(ctx, principalID)
		if err != nil {
			return err
		}
		work := st.Clone()
		if err := mutate(work); err != nil {
			return err
		}
		err = g.store.Replace(ctx, principalID, ver, work, g.docTTL(work))
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("%w: state kept changing underneath", ErrStoreUnavailable)
}

// docTTL computes the stored document's TTL: until the latest credential
// expiry plus a grace window, so lazy pruning still sees expired entries.
// The legacy slot contributes its token's own embedded expiry; a slot value
// that cannot be inspected falls back to the long refresh lifetime rather
// than being dropped early.
func (g *Gateway) docTTL(st *session.AuthState) time.Duration {
	now := time.Now()
	var latest time.Time
	for _, s := range st.Sessions {
		if s.ExpiresAt.After(latest) {
			latest = s.ExpiresAt
		}
	}
	if st.LegacyToken != "" {
		if exp, err := g.tokens.ExpiryOf(st.LegacyToken); err == nil {
			if exp.After(latest) {
				latest = exp
			}
		} else if latest.IsZero() {
			latest = now.Add(g.cfg.Token.RememberedRefreshTTL)
		}
	}
	if latest.IsZero() {
		return 0
	}
	return latest.Sub(now) + g.cfg.Session.DocTTLGrace
}

// accountStateError maps a non-active directory status to its sentinel.
func accountStateError(status directory.Status) error {
	switch status {
	case directory.StatusActive:
		return nil
	case directory.StatusPendingVerification:
		return ErrAccountUnverified
	case directory.StatusPendingApproval:
		return ErrAccountUnapproved
	case directory.StatusRejected:
		return ErrAccountRejected
	case directory.StatusSuspended:
		return ErrAccountSuspended
	default:
		return ErrAccountSuspended
	}
}

// mapTokenError converts token package sentinels into gateway sentinels.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrInvalid):
		return ErrTokenInvalid
	default:
		return err
	}
}
