// Package authkit is the session and refresh-token lifecycle core of the
// deskforge helpdesk backend.
//
// It tracks every authenticated device per principal, enforces a bounded
// number of concurrent sessions, rotates refresh tokens on every use, and
// stays correct when the same account refreshes from two devices or two
// tabs at the same instant. Every state change to a principal's session
// collection is performed as an atomic compare-and-swap against the backing
// store; concurrent duplicate presentation of the same refresh token yields
// exactly one winner, all other callers observe ErrTokenConflict.
//
// The HTTP layer, ticket business logic, and notification transport are
// external consumers. The package exposes a Gateway built via the builder:
//
//	gw, err := authkit.New().
//		WithConfig(authkit.DefaultConfig()).
//		WithRedis(rdb).
//		WithDirectory(dir).
//		Build()
//
// All Gateway methods are safe for concurrent use.
package authkit
