package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/deskforge/authkit/directory"
	"github.com/deskforge/authkit/session"
	"github.com/deskforge/authkit/store"
	"github.com/deskforge/authkit/token"
)

// Refresh rotates a refresh token: it verifies the signature and lifetime,
// re-checks account standing, swaps the stored token for a fresh one in a
// single compare-and-swap, and returns the new pair. Exactly one caller
// wins a concurrent race on the same token; losers observe the superseded
// value on re-read and fail with ErrTokenConflict so they can fall back to
// a full login.
func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	if g == nil || g.tokens == nil {
		return nil, ErrGatewayNotReady
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrMissingInput)
	}

	claims, err := g.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		mapped := mapTokenError(err)
		g.metrics.Inc(MetricRefreshFailure)
		g.emitAudit(ctx, EventRefreshFailure, false, "", "", "", mapped, nil)
		return nil, mapped
	}
	principalID := claims.PrincipalID()

	// Standing can change between issuance and refresh. A suspended or
	// rejected account must not mint new credentials off an old token.
	principal, err := g.dir.ByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			g.metrics.Inc(MetricRefreshFailure)
			g.emitAudit(ctx, EventRefreshFailure, false, principalID, claims.SessionID, "", ErrTokenInvalid, nil)
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if serr := accountStateError(principal.Status); serr != nil {
		if claims.SessionID != "" {
			// best effort; the token is dead either way
			_ = g.mutateState(ctx, principalID, func(st *session.AuthState) error {
				g.sessions.Remove(st, claims.SessionID)
				return nil
			})
		}
		g.metrics.Inc(MetricRefreshFailure)
		g.emitAudit(ctx, EventRefreshFailure, false, principalID, claims.SessionID, "", serr, nil)
		return nil, serr
	}

	for attempt := 0; attempt < g.cfg.Session.CASRetryLimit; attempt++ {
		st, ver, err := g.store.Load(ctx, principalID)
		if err != nil {
			return nil, err
		}
		work := st.Clone()

		var pair token.Pair
		var sessionID string
		legacy := false

		if sess := g.sessions.FindByToken(work, refreshToken); sess != nil {
			sessionID = sess.ID
			pair, err = g.tokens.Issue(principalID, token.IssueOptions{
				RememberMe: sess.RememberMe,
				SessionID:  sess.ID,
			})
			if err != nil {
				return nil, err
			}
			g.sessions.Touch(work, sess.ID, pair.RefreshToken)
		} else if claims.SessionID == "" && work.LegacyToken != "" && work.LegacyToken == refreshToken {
			// only true single-slot pairs (no sid claim) may take this
			// branch; a session-bound token whose session expired must not
			// keep rotating through the mirrored slot
			legacy = true
			pair, err = g.tokens.Issue(principalID, token.IssueOptions{
				RememberMe: claims.RememberMe,
			})
			if err != nil {
				return nil, err
			}
			g.sessions.RotateLegacy(work, refreshToken, pair.RefreshToken)
		} else {
			failure := refreshLookupFailure(g.sessions, work, claims)
			g.metrics.Inc(MetricRefreshFailure)
			if errors.Is(failure, ErrTokenConflict) {
				g.metrics.Inc(MetricRefreshConflict)
			}
			g.emitAudit(ctx, EventRefreshFailure, false, principalID, claims.SessionID, "", failure, nil)
			return nil, failure
		}

		err = g.store.Replace(ctx, principalID, ver, work, g.docTTL(work))
		if err == nil {
			g.metrics.Inc(MetricRefreshSuccess)
			if legacy {
				g.metrics.Inc(MetricLegacyRefresh)
			}
			g.emitAudit(ctx, EventRefreshSuccess, true, principalID, sessionID, "", nil, nil)
			return &Credentials{
				AccessToken:      pair.AccessToken,
				RefreshToken:     pair.RefreshToken,
				SessionID:        sessionID,
				AccessExpiresAt:  pair.AccessExpiresAt,
				RefreshExpiresAt: pair.RefreshExpiresAt,
			}, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		// lost the swap; re-read and re-evaluate against fresh state
	}

	g.metrics.Inc(MetricRefreshFailure)
	g.metrics.Inc(MetricRefreshConflict)
	g.emitAudit(ctx, EventRefreshFailure, false, principalID, claims.SessionID, "", ErrTokenConflict, nil)
	return nil, ErrTokenConflict
}

// refreshLookupFailure distinguishes a superseded token from an unknown
// one. If the claimed session is still live its stored token has simply
// moved on, so the presented value lost a rotation race: that is a
// conflict, not an invalid token. A legacy-claim token that no longer
// matches a non-empty slot is superseded the same way. Everything else,
// including tokens whose session was revoked, is invalid.
func refreshLookupFailure(m *session.Manager, st *session.AuthState, claims *token.Claims) error {
	if claims.SessionID != "" {
		if m.FindByID(st, claims.SessionID) != nil {
			return ErrTokenConflict
		}
		return ErrTokenInvalid
	}
	if st.LegacyToken != "" {
		return ErrTokenConflict
	}
	return ErrTokenInvalid
}
