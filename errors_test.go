package authkit

import (
	"fmt"
	"net/http"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		code   Code
		status int
	}{
		{nil, "", http.StatusOK},
		{ErrMissingInput, CodeValidation, http.StatusBadRequest},
		{ErrInvalidCredentials, CodeCredentialInvalid, http.StatusUnauthorized},
		{ErrAccountUnverified, CodeAccountState, http.StatusForbidden},
		{ErrAccountUnapproved, CodeAccountState, http.StatusForbidden},
		{ErrAccountRejected, CodeAccountState, http.StatusForbidden},
		{ErrAccountSuspended, CodeAccountState, http.StatusForbidden},
		{ErrTokenExpired, CodeTokenExpired, http.StatusUnauthorized},
		{ErrTokenInvalid, CodeTokenInvalid, http.StatusUnauthorized},
		{ErrTokenConflict, CodeTokenConflict, http.StatusConflict},
		{ErrSessionNotFound, CodeNotFound, http.StatusNotFound},
		{ErrPrincipalNotFound, CodeNotFound, http.StatusNotFound},
		{ErrStoreUnavailable, CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.code {
			t.Errorf("CodeOf(%v) = %v, want %v", tc.err, got, tc.code)
		}
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestTaxonomySeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("rotation: %w", ErrTokenConflict)
	if CodeOf(wrapped) != CodeTokenConflict {
		t.Fatal("wrapped conflict not classified")
	}
	if !Retryable(wrapped) {
		t.Fatal("wrapped conflict not retryable")
	}
	if Retryable(ErrTokenInvalid) {
		t.Fatal("invalid token flagged retryable")
	}
}
