package session

import "time"

// Manager applies the session collection rules: expiry computation, the
// per-principal cap with least-recently-used eviction, lazy pruning, and
// legacy single-slot maintenance. All methods are pure transforms on the
// passed AuthState; persistence and retry are the caller's concern.
type Manager struct {
	// Cap is the maximum number of live sessions per principal.
	Cap int
	// TTL is the session lifetime without rememberMe.
	TTL time.Duration
	// RememberedTTL is the session lifetime with rememberMe.
	RememberedTTL time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Create builds a session record for a fresh login. The device signal is
// classified once here; id and refreshToken are supplied by the caller
// because the credential pair carrying the session id is issued first.
func (m *Manager) Create(id, refreshToken string, rememberMe bool, sig DeviceSignal) Session {
	now := m.now()
	ttl := m.TTL
	if rememberMe {
		ttl = m.RememberedTTL
	}
	return Session{
		ID:           id,
		RefreshToken: refreshToken,
		Device:       Classify(sig),
		RememberMe:   rememberMe,
		CreatedAt:    now,
		LastUsedAt:   now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Attach prunes expired sessions, evicts the least-recently-used session if
// the collection is at the cap, appends sess, and mirrors the legacy slot.
// It returns the evicted sessions (for audit) and the pruned count.
func (m *Manager) Attach(st *AuthState, sess Session) (evicted []Session, pruned int) {
	pruned = m.PruneExpired(st)
	for len(st.Sessions) >= m.Cap {
		idx := oldestUsed(st.Sessions)
		evicted = append(evicted, st.Sessions[idx])
		st.Sessions = append(st.Sessions[:idx], st.Sessions[idx+1:]...)
	}
	st.Sessions = append(st.Sessions, sess)
	m.syncLegacy(st)
	return evicted, pruned
}

// oldestUsed picks the session with the smallest LastUsedAt. Oldest-used,
// not oldest-created: a long-lived session that still refreshes survives,
// a younger but stale one goes first.
func oldestUsed(sessions []Session) int {
	idx := 0
	for i := 1; i < len(sessions); i++ {
		if sessions[i].LastUsedAt.Before(sessions[idx].LastUsedAt) {
			idx = i
		}
	}
	return idx
}

// PruneExpired drops every session past its expiry. Idempotent and safe to
// run redundantly; there is no background sweeper, pruning happens here.
func (m *Manager) PruneExpired(st *AuthState) int {
	now := m.now()
	kept := st.Sessions[:0]
	removed := 0
	for _, s := range st.Sessions {
		if s.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	st.Sessions = kept
	if removed > 0 {
		m.syncLegacy(st)
	}
	return removed
}

// FindByToken returns the live session whose stored refresh token equals
// token exactly. Expired sessions never match.
func (m *Manager) FindByToken(st *AuthState, token string) *Session {
	if token == "" {
		return nil
	}
	now := m.now()
	for i := range st.Sessions {
		if st.Sessions[i].RefreshToken == token && !st.Sessions[i].Expired(now) {
			return &st.Sessions[i]
		}
	}
	return nil
}

// FindByID returns the live session with the given id, or nil.
func (m *Manager) FindByID(st *AuthState, id string) *Session {
	if id == "" {
		return nil
	}
	now := m.now()
	for i := range st.Sessions {
		if st.Sessions[i].ID == id && !st.Sessions[i].Expired(now) {
			return &st.Sessions[i]
		}
	}
	return nil
}

// Touch replaces the session's refresh token and bumps LastUsedAt. It
// reports false when no live session with that id exists.
func (m *Manager) Touch(st *AuthState, id, newToken string) bool {
	sess := m.FindByID(st, id)
	if sess == nil {
		return false
	}
	sess.RefreshToken = newToken
	sess.LastUsedAt = m.now()
	m.syncLegacy(st)
	return true
}

// Remove deletes the session with the given id, reporting whether it existed.
func (m *Manager) Remove(st *AuthState, id string) bool {
	for i := range st.Sessions {
		if st.Sessions[i].ID == id {
			st.Sessions = append(st.Sessions[:i], st.Sessions[i+1:]...)
			m.syncLegacy(st)
			return true
		}
	}
	return false
}

// RemoveOthers deletes every session except keepID, returning the count.
func (m *Manager) RemoveOthers(st *AuthState, keepID string) int {
	kept := st.Sessions[:0]
	removed := 0
	for _, s := range st.Sessions {
		if s.ID == keepID {
			kept = append(kept, s)
			continue
		}
		removed++
	}
	st.Sessions = kept
	if removed > 0 {
		m.syncLegacy(st)
	}
	return removed
}

// RemoveAll deletes every session and clears the legacy slot.
func (m *Manager) RemoveAll(st *AuthState) int {
	removed := len(st.Sessions)
	st.Sessions = nil
	st.LegacyToken = ""
	return removed
}

// ClearLegacy empties only the single-slot legacy token, leaving the
// session list untouched. Back-compat logout for clients that never
// adopted sessions.
func (m *Manager) ClearLegacy(st *AuthState) bool {
	if st.LegacyToken == "" {
		return false
	}
	st.LegacyToken = ""
	return true
}

// RotateLegacy conditionally replaces the legacy slot. The caller has
// already checked equality against the presented token; this re-checks so
// the swap composes with the store-level compare-and-swap.
func (m *Manager) RotateLegacy(st *AuthState, oldToken, newToken string) bool {
	if st.LegacyToken == "" || st.LegacyToken != oldToken {
		return false
	}
	st.LegacyToken = newToken
	return true
}

// ListActive returns sanitized copies of the live sessions, most recently
// used first, flagging the caller's own session when currentID is supplied.
// IPs are partially masked; no token material is exposed.
func (m *Manager) ListActive(st *AuthState, currentID string) []View {
	now := m.now()
	views := make([]View, 0, len(st.Sessions))
	for _, s := range st.Sessions {
		if s.Expired(now) {
			continue
		}
		views = append(views, View{
			ID:         s.ID,
			Browser:    s.Device.Browser,
			OS:         s.Device.OS,
			Device:     s.Device.Device,
			IP:         MaskIP(s.Device.IP),
			RememberMe: s.RememberMe,
			Current:    currentID != "" && s.ID == currentID,
			CreatedAt:  s.CreatedAt,
			LastUsedAt: s.LastUsedAt,
			ExpiresAt:  s.ExpiresAt,
		})
	}
	for i := 1; i < len(views); i++ {
		for j := i; j > 0 && views[j].LastUsedAt.After(views[j-1].LastUsedAt); j-- {
			views[j], views[j-1] = views[j-1], views[j]
		}
	}
	return views
}

// syncLegacy re-derives the legacy slot from the session list: the newest
// live session's token, or empty when none remain. Expired sessions never
// contribute; their tokens must not survive in the slot. Keeping this a
// projection avoids the two copies drifting apart.
func (m *Manager) syncLegacy(st *AuthState) {
	now := m.now()
	newest := -1
	for i := range st.Sessions {
		if st.Sessions[i].Expired(now) {
			continue
		}
		if newest < 0 || st.Sessions[i].CreatedAt.After(st.Sessions[newest].CreatedAt) {
			newest = i
		}
	}
	if newest < 0 {
		st.LegacyToken = ""
		return
	}
	st.LegacyToken = st.Sessions[newest].RefreshToken
}
