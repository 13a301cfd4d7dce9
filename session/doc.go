// Package session holds the per-principal session collection model and the
// pure transforms applied to it: attach with cap eviction, lazy expiry
// pruning, token rotation bookkeeping, removal, and sanitized listing.
//
// Nothing here touches the network. The Manager mutates an AuthState value
// in memory; the caller persists the result through an atomic
// compare-and-swap (see the store package) and retries on conflict.
package session
