package gateway

import (
	"fmt"
	"sync"
)

/* Table is the routing table: token -> live pipeline entry.
 * Creation is guarded per token so that concurrent webhook deliveries for
 * the same token start at most one pipeline, while unrelated tokens are
 * never serialized against each other.
 */
type Table struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	// Per-token creation guards. Guards are retained for the process
	// lifetime; the token set is small and bounded by the registry.
	guardsMu sync.Mutex
	guards   map[string]*sync.Mutex
}

// NewTable returns an empty routing table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]*Entry),
		guards:  make(map[string]*sync.Mutex),
	}
}

// Get returns the live entry for a token, if any.
func (t *Table) Get(token string) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.entries[token]
	return entry, ok
}

// Remove drops the entry for a token.
func (t *Table) Remove(token string) {
	t.mu.Lock()
	delete(t.entries, token)
	t.mu.Unlock()
}

// Len reports the number of routed tokens.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Tokens returns the currently routed tokens.
func (t *Table) Tokens() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tokens := make([]string, 0, len(t.entries))
	for token := range t.entries {
		tokens = append(tokens, token)
	}
	return tokens
}

// guard returns the creation mutex for a token, allocating it on first use.
func (t *Table) guard(token string) *sync.Mutex {
	t.guardsMu.Lock()
	defer t.guardsMu.Unlock()
	g, ok := t.guards[token]
	if !ok {
		g = &sync.Mutex{}
		t.guards[token] = g
	}
	return g
}

// InsertIfAbsent returns the entry for token, running factory to create it
// if none exists. Under concurrent calls for the same token the factory runs
// at most once; the new entry is registered before the guard is released.
func (t *Table) InsertIfAbsent(token string, factory func() (*Entry, error)) (*Entry, error) {
	g := t.guard(token)
	g.Lock()
	defer g.Unlock()

	// Another caller may have created the entry while we waited.
	if entry, ok := t.Get(token); ok {
		return entry, nil
	}

	entry, err := factory()
	if err != nil {
		return nil, fmt.Errorf("creating pipeline for instance: %w", err)
	}

	t.mu.Lock()
	t.entries[token] = entry
	t.mu.Unlock()

	return entry, nil
}
