package authkit

import (
	"errors"
	"net/http"
)

var (
	// ErrMissingInput reports a request with a required field absent.
	ErrMissingInput = errors.New("missing required input")
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnverified rejects principals that have not confirmed their email.
	ErrAccountUnverified = errors.New("account email not verified")
	// ErrAccountUnapproved rejects principals awaiting agent approval.
	ErrAccountUnapproved = errors.New("account pending approval")
	// ErrAccountRejected rejects principals whose signup was declined.
	ErrAccountRejected = errors.New("account rejected")
	// ErrAccountSuspended rejects suspended principals.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrTokenExpired reports a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid reports a token with a bad signature or structure, or
	// one that no longer corresponds to any stored session or legacy slot.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenConflict reports that a concurrent rotation won the race for
	// this exact token, or that the token was superseded by a later
	// rotation. Safe to retry a bounded number of times with the caller's
	// last-known-good token.
	ErrTokenConflict = errors.New("token rotation conflict")
	// ErrSessionNotFound reports a revoke or lookup against an absent session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPrincipalNotFound reports an absent account.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrGatewayNotReady reports use of a Gateway that was not built.
	ErrGatewayNotReady = errors.New("gateway not initialized")
	// ErrStoreUnavailable wraps backing-store transport failures.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Code classifies gateway errors for the transport layer.
type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeCredentialInvalid Code = "CREDENTIAL_INVALID"
	CodeAccountState      Code = "ACCOUNT_STATE"
	CodeTokenExpired      Code = "TOKEN_EXPIRED"
	CodeTokenInvalid      Code = "TOKEN_INVALID"
	CodeTokenConflict     Code = "TOKEN_CONFLICT"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInternal          Code = "INTERNAL"
)

// CodeOf maps an error returned by the Gateway onto its taxonomy code.
// Unrecognized errors map to CodeInternal.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingInput):
		return CodeValidation
	case errors.Is(err, ErrInvalidCredentials):
		return CodeCredentialInvalid
	case errors.Is(err, ErrAccountUnverified),
		errors.Is(err, ErrAccountUnapproved),
		errors.Is(err, ErrAccountRejected),
		errors.Is(err, ErrAccountSuspended):
		return CodeAccountState
	case errors.Is(err, ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, ErrTokenInvalid):
		return CodeTokenInvalid
	case errors.Is(err, ErrTokenConflict):
		return CodeTokenConflict
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrPrincipalNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// HTTPStatus returns the status the transport layer should answer with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case "":
		return http.StatusOK
	case CodeValidation:
		return http.StatusBadRequest
	case CodeCredentialInvalid, CodeTokenExpired, CodeTokenInvalid:
		return http.StatusUnauthorized
	case CodeAccountState:
		return http.StatusForbidden
	case CodeTokenConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the client may safely re-present its
// last-known-good token. Only rotation conflicts qualify; every other
// category is terminal for the request.
func Retryable(err error) bool {
	return errors.Is(err, ErrTokenConflict)
}
