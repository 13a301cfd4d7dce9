package authkit

import (
	"time"

	"github.com/deskforge/authkit/session"
)

// DeviceSignal is the raw per-request device evidence (User-Agent and
// caller IP) supplied by the transport layer.
type DeviceSignal = session.DeviceSignal

// Credentials is the result of a successful login or refresh: the signed
// pair, the owning session, and the computed expiry timestamps.
type Credentials struct {
	AccessToken      string
	RefreshToken     string
	SessionID        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// LoginOptions carries the client-chosen session lifetime flag and the
// device signal recorded on the new session.
type LoginOptions struct {
	RememberMe bool
	Device     DeviceSignal
}

// LogoutOptions selects the logout scope. AllDevices removes every session
// and clears the legacy slot; a SessionID removes that one session; neither
// clears only the legacy single-slot token, preserving session-based logins
// (back-compat single-session logout).
type LogoutOptions struct {
	SessionID  string
	AllDevices bool
}

// PasswordVerifier checks a presented password against a stored hash.
// The default implementation is password.Argon2; deployments that hash
// elsewhere supply their own.
type PasswordVerifier interface {
	Verify(password, encodedHash string) (bool, error)
}
