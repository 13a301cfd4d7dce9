// Package store persists each principal's session document and exposes the
// single primitive everything above it depends on: an atomic
// compare-and-swap replace. Load returns the decoded document together with
// an opaque version (the raw stored bytes); Replace succeeds only if the
// stored value still equals that version at the moment of the write.
//
// Callers run a read–transform–replace loop and re-read fresh state on
// conflict. No in-process lock is ever held across a store round-trip.
package store
