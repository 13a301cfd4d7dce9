package directory

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports an absent principal. The gateway folds it into a
// uniform credential failure so callers cannot probe which emails exist.
var ErrNotFound = errors.New("principal not found")

// Status is the account lifecycle state. Only verified and approved
// accounts may authenticate.
type Status uint8

const (
	StatusActive Status = iota
	StatusPendingVerification
	StatusPendingApproval
	StatusRejected
	StatusSuspended
)

// String returns the reason label used in ACCOUNT_STATE errors and audits.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPendingVerification:
		return "pending_verification"
	case StatusPendingApproval:
		return "pending_approval"
	case StatusRejected:
		return "rejected"
	case StatusSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Principal is one helpdesk account.
type Principal struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Status       Status
	CreatedAt    time.Time
}

// Directory is the account lookup capability consumed by the gateway.
type Directory interface {
	ByID(ctx context.Context, id string) (Principal, error)
	ByEmail(ctx context.Context, email string) (Principal, error)
}
