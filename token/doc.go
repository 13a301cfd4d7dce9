// Package token issues and verifies the signed, time-bound credential
// pairs: a short-lived access token and a long-lived refresh token. Tokens
// are JWTs, signed but not encrypted; nothing beyond the verification key
// is needed to validate them. Verification is pure and synchronous.
package token
