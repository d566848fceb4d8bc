// Package recent tracks the recently played locators, providing
// add/remove/list operations used by the command layer and persisted
// through the config package.
package recent

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 10

// Entry is one recently played locator.
type Entry struct {
	Locator  string
	PlayedAt time.Time
}

// Manager keeps a bounded, most-recent-first list of played locators.
type Manager struct {
	log     *slog.Logger
	mu      sync.RWMutex
	entries []Entry
	limit   int
}

// NewManager creates a recent-files manager keeping at most limit entries.
// If limit is not positive, DefaultLimit is used. If log is nil,
// slog.Default() is used.
func NewManager(limit int, log *slog.Logger) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:   log.With("component", "recent"),
		limit: limit,
	}
}

// Add records a play of locator, moving it to the front if already present
// and evicting the oldest entry when the list is full.
func (m *Manager) Add(locator string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.Locator == locator {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}

	m.entries = append([]Entry{{Locator: locator, PlayedAt: time.Now()}}, m.entries...)
	if len(m.entries) > m.limit {
		evicted := m.entries[len(m.entries)-1]
		m.entries = m.entries[:m.limit]
		m.log.Debug("recent entry evicted", "locator", evicted.Locator)
	}
}

// Remove drops locator from the list if present.
func (m *Manager) Remove(locator string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.Locator == locator {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// List returns the entries, most recent first.
func (m *Manager) List() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Locators returns just the locator strings, most recent first.
func (m *Manager) Locators() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Locator
	}
	return out
}

// Replace resets the list from persisted locators, oldest timestamps
// preserved in order only.
func (m *Manager) Replace(locators []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = m.entries[:0]
	now := time.Now()
	for _, l := range locators {
		if len(m.entries) == m.limit {
			break
		}
		m.entries = append(m.entries, Entry{Locator: l, PlayedAt: now})
	}
}
