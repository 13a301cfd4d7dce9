package directory

import (
	"context"
	"strings"
	"sync"
)

// Memory is a map-backed Directory for tests and examples.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]Principal
	byEmail map[string]string
}

// NewMemory returns an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]Principal),
		byEmail: make(map[string]string),
	}
}

// Put inserts or replaces a principal.
func (m *Memory) Put(p Principal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[p.ID] = p
	m.byEmail[normalizeEmail(p.Email)] = p.ID
}

// ByID implements Directory.
func (m *Memory) ByID(_ context.Context, id string) (Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.byID[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

// ByEmail implements Directory.
func (m *Memory) ByEmail(_ context.Context, email string) (Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[normalizeEmail(email)]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return m.byID[id], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
