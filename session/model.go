package session

import "time"

// DeviceSignal is the raw per-request device evidence supplied by the
// calling layer: the HTTP User-Agent header and the caller IP.
type DeviceSignal struct {
	UserAgent string
	IP        string
}

// DeviceInfo is the stored, classified form of a DeviceSignal. Browser, OS,
// and Device are best-effort substring classifications for display in the
// session list; they are never an input to an authorization decision.
type DeviceInfo struct {
	UserAgent string `json:"user_agent"`
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	Device    string `json:"device,omitempty"`
	IP        string `json:"ip"`
}

// Session is one authenticated device or browser for a principal.
//
// RefreshToken holds the currently valid refresh credential; it is replaced
// on every successful rotation and a superseded value is never reinstated.
type Session struct {
	ID           string     `json:"id"`
	RefreshToken string     `json:"refresh_token"`
	Device       DeviceInfo `json:"device"`
	RememberMe   bool       `json:"remember_me"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   time.Time  `json:"last_used_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
}

// Expired reports whether the session's lifetime has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// AuthState is the persisted session document of one principal.
//
// LegacyToken is the single-slot refresh token kept for clients that predate
// sessions. It is a projection of the session list (newest session's token)
// maintained inside the same atomic write, plus a standalone clear path for
// the back-compat single-session logout. It is never mutated independently
// of the list except for that clear.
type AuthState struct {
	LegacyToken string    `json:"legacy_token,omitempty"`
	Sessions    []Session `json:"sessions,omitempty"`
}

// Clone returns a deep copy. The store hands callers clones so a retried
// compare-and-swap loop always starts from untouched loaded state.
func (st *AuthState) Clone() *AuthState {
	if st == nil {
		return &AuthState{}
	}
	out := &AuthState{LegacyToken: st.LegacyToken}
	if len(st.Sessions) > 0 {
		out.Sessions = make([]Session, len(st.Sessions))
		copy(out.Sessions, st.Sessions)
	}
	return out
}

// Empty reports whether the document carries no live credential material.
func (st *AuthState) Empty() bool {
	return st == nil || (st.LegacyToken == "" && len(st.Sessions) == 0)
}

// View is the sanitized projection returned to session-listing callers.
// The IP is partially masked and no token material is included.
type View struct {
	ID         string    `json:"id"`
	Browser    string    `json:"browser,omitempty"`
	OS         string    `json:"os,omitempty"`
	Device     string    `json:"device,omitempty"`
	IP         string    `json:"ip"`
	RememberMe bool      `json:"remember_me"`
	Current    bool      `json:"current"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
