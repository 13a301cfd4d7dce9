// Package middleware provides net/http middleware for protecting routes
// with access tokens issued by the authkit gateway.
package middleware
