package store

import (
	"context"
	"errors"
	"time"

	"github.com/deskforge/authkit/session"
)

var (
	// ErrConflict reports a compare-and-swap whose expected prior value no
	// longer matched the stored one. The caller re-reads and retries.
	ErrConflict = errors.New("auth state version conflict")
	// ErrUnavailable wraps transport failures talking to the store.
	ErrUnavailable = errors.New("auth store unavailable")
)

// Version is the CAS witness: the exact bytes the document held when it was
// loaded. A nil/empty Version means "no document existed".
type Version []byte

// AuthStore is the persistent-store capability consumed by the gateway.
// Implementations must make Replace atomic with respect to every other
// Replace on the same principal.
type AuthStore interface {
	// Load returns the principal's session document and its version. A
	// principal with no document yields an empty AuthState and nil Version.
	Load(ctx context.Context, principalID string) (*session.AuthState, Version, error)

	// Replace writes st only if the stored bytes still equal expected,
	// otherwise ErrConflict. An Empty state deletes the document. ttl bounds
	// how long the document may outlive its latest credential.
	Replace(ctx context.Context, principalID string, expected Version, st *session.AuthState, ttl time.Duration) error
}
