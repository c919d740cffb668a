package registry

import (
	"context"
	"fmt"

	"github.com/sngor/regkit/logger"
)

// Store is the minimal contract the registry needs from a durable backend:
// point write, point read, attribute-filtered query, point delete. Any store
// with these operations (a NoSQL table, an embedded KV store, a relational
// table) satisfies it.
//
// Get returns (nil, nil) when the identity triple has no registration;
// absence is not an error. Transient backend failures surface as
// errors.StoreUnavailable; the registry never retries internally.
type Store interface {
	// Put creates or replaces the registration keyed by its identity triple.
	Put(ctx context.Context, reg *ServiceRegistration) error

	// Get returns the registration for the triple, or (nil, nil) if absent.
	Get(ctx context.Context, serviceName, version, serviceID string) (*ServiceRegistration, error)

	// Query returns registrations matching the query's conjunctive filters.
	// No ordering is guaranteed.
	Query(ctx context.Context, q Query) ([]ServiceRegistration, error)

	// Delete removes the registration for the triple. Deleting an absent
	// key is not an error.
	Delete(ctx context.Context, serviceName, version, serviceID string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// StoreFactory creates a Store from registry config. providerCfg holds
// provider-specific configuration (e.g., *redis.Config); providers
// type-assert it to their own config type.
type StoreFactory func(cfg Config, providerCfg any, log *logger.Logger) (Store, error)

var storeFactories = make(map[string]StoreFactory)

// RegisterStoreFactory registers a store backend factory for the given
// provider name. Backend packages call this (typically in an init function)
// to make themselves available to the Component.
func RegisterStoreFactory(name string, f StoreFactory) {
	storeFactories[name] = f
}

// NewStore resolves the configured provider and builds its Store.
func NewStore(cfg Config, providerCfg any, log *logger.Logger) (Store, error) {
	f, ok := storeFactories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported registry store provider %q (not registered)", cfg.Provider)
	}
	return f(cfg, providerCfg, log)
}
