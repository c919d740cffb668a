// Package memory provides an in-memory registry store. Useful for local
// development and testing; state is lost on process exit.
package memory

import (
	"context"
	"sync"

	"github.com/sngor/regkit/logger"
	"github.com/sngor/regkit/registry"
)

// Store implements registry.Store over a mutex-guarded map keyed by the
// identity triple. Registrations are cloned on the way in and out so
// callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*registry.ServiceRegistration
}

func init() {
	registry.RegisterStoreFactory("memory", func(_ registry.Config, _ any, _ *logger.Logger) (registry.Store, error) {
		return NewStore(), nil
	})
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*registry.ServiceRegistration),
	}
}

// ensure Store satisfies registry.Store.
var _ registry.Store = (*Store)(nil)

// Put creates or replaces the registration keyed by its identity triple.
func (s *Store) Put(_ context.Context, reg *registry.ServiceRegistration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[reg.Key()] = reg.Clone()
	return nil
}

// Get returns the registration for the triple, or (nil, nil) if absent.
func (s *Store) Get(_ context.Context, serviceName, version, serviceID string) (*registry.ServiceRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.entries[registry.RegistrationKey(serviceName, version, serviceID)]
	if !ok {
		return nil, nil
	}
	return reg.Clone(), nil
}

// Query returns registrations matching the query's conjunctive filters.
func (s *Store) Query(_ context.Context, q registry.Query) ([]registry.ServiceRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []registry.ServiceRegistration
	for _, reg := range s.entries {
		if q.Matches(reg) {
			out = append(out, *reg.Clone())
		}
	}
	return out, nil
}

// Delete removes the registration for the triple. Deleting an absent key
// is not an error.
func (s *Store) Delete(_ context.Context, serviceName, version, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, registry.RegistrationKey(serviceName, version, serviceID))
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close discards all entries.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*registry.ServiceRegistration)
	return nil
}

// Len reports the number of stored registrations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
