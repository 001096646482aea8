package adapter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Manager tracks the registered collections of one deployment. It hands
// every collection the same connector, so switching the backing store
// is a construction time decision, not a per-collection one.
type Manager struct {
	mu          sync.RWMutex
	connector   domain.Connector
	collections map[string]*Collection
}

// NewManager builds a manager around a connector. A nil connector makes
// each collection dial the store described by its own definition.
func NewManager(connector domain.Connector) *Manager {
	return &Manager{
		connector:   connector,
		collections: make(map[string]*Collection),
	}
}

// Register builds the collection for a definition, ensures its indexes
// exist in the store, and makes it available under its identity.
// Registering an identity again replaces the previous registration.
func (m *Manager) Register(ctx context.Context, def Definition) (*Collection, error) {
	c, err := NewCollection(def, m.connector)
	if err != nil {
		return nil, err
	}
	if err := c.Register(ctx); err != nil {
		return nil, fmt.Errorf("register collection %q: %w", c.Identity(), err)
	}

	m.mu.Lock()
	m.collections[c.Identity()] = c
	m.mu.Unlock()

	log.Printf("INFO: registered collection %s with %d indexes", c.Identity(), len(c.Indexes()))
	return c, nil
}

// Get returns the registered collection for an identity. Lookup is case
// insensitive, matching how identities are stored.
func (m *Manager) Get(identity string) (*Collection, error) {
	key := strings.ToLower(strings.TrimSpace(identity))

	m.mu.RLock()
	c, ok := m.collections[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("collection %q: %w", key, ErrNotRegistered)
	}
	return c, nil
}

// Identities returns the registered collection names in sorted order.
func (m *Manager) Identities() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.collections))
	for identity := range m.collections {
		out = append(out, identity)
	}
	sort.Strings(out)
	return out
}

// Teardown forgets a registered collection. The data in the store is
// untouched; callers wanting it gone drop the collection first.
func (m *Manager) Teardown(identity string) error {
	key := strings.ToLower(strings.TrimSpace(identity))

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[key]; !ok {
		return fmt.Errorf("collection %q: %w", key, ErrNotRegistered)
	}
	delete(m.collections, key)
	return nil
}
