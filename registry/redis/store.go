// Package redis provides a Redis-backed registry store built on go-redis.
// Registrations are stored as JSON documents keyed by identity triple;
// queries SCAN the key space and filter client-side.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sngor/regkit/errors"
	"github.com/sngor/regkit/logger"
	"github.com/sngor/regkit/registry"
)

const providerName = "redis"

// Store implements registry.Store on a Redis key space.
type Store struct {
	rdb       *goredis.Client
	keyPrefix string
	scanCount int64
	owned     bool
	log       *logger.Logger
}

func init() {
	registry.RegisterStoreFactory(providerName, func(cfg registry.Config, providerCfg any, log *logger.Logger) (registry.Store, error) {
		rc, ok := providerCfg.(*Config)
		if !ok || rc == nil {
			return nil, fmt.Errorf("redis store requires *redis.Config, got %T", providerCfg)
		}
		return NewStore(*rc, cfg.KeyPrefix, log)
	})
}

// NewStore creates a Redis-backed store. keyPrefix namespaces all registry
// keys; pass the value from registry.Config.
func NewStore(cfg Config, keyPrefix string, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	log = log.WithComponent("registry-redis")
	log.Info("redis registry store created", logger.Fields(
		"addr", cfg.Addr,
		"db", cfg.DB,
	))

	return &Store{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		scanCount: cfg.ScanCount,
		owned:     true,
		log:       log,
	}, nil
}

// NewStoreFromClient wraps an existing go-redis client. The caller keeps
// ownership of the client; Close is a no-op on it.
func NewStoreFromClient(rdb *goredis.Client, keyPrefix string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Store{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		scanCount: 100,
		log:       log.WithComponent("registry-redis"),
	}
}

// ensure Store satisfies registry.Store.
var _ registry.Store = (*Store)(nil)

func (s *Store) fullKey(serviceName, version, serviceID string) string {
	key := registry.RegistrationKey(serviceName, version, serviceID)
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Put stores the registration as a JSON document.
func (s *Store) Put(ctx context.Context, reg *registry.ServiceRegistration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration %q: %w", reg.Key(), err)
	}
	key := s.fullKey(reg.ServiceName, reg.Version, reg.ServiceID)
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Get returns the registration for the triple, or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, serviceName, version, serviceID string) (*registry.ServiceRegistration, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(serviceName, version, serviceID)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.StoreUnavailable(providerName, err)
	}

	var reg registry.ServiceRegistration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return nil, fmt.Errorf("unmarshal registration %s/%s/%s: %w", serviceName, version, serviceID, err)
	}
	return &reg, nil
}

// Query SCANs the registry key space and filters registrations client-side.
func (s *Store) Query(ctx context.Context, q registry.Query) ([]registry.ServiceRegistration, error) {
	pattern := "*"
	if s.keyPrefix != "" {
		pattern = s.keyPrefix + ":*"
	}
	// Narrow the scan when the query names a service; keys start with it.
	if q.ServiceName != "" {
		if s.keyPrefix != "" {
			pattern = s.keyPrefix + ":" + q.ServiceName + registry.KeySeparator + "*"
		} else {
			pattern = q.ServiceName + registry.KeySeparator + "*"
		}
	}

	var out []registry.ServiceRegistration
	iter := s.rdb.Scan(ctx, 0, pattern, s.scanCount).Iterator()
	for iter.Next(ctx) {
		raw, err := s.rdb.Get(ctx, iter.Val()).Result()
		if err == goredis.Nil {
			continue // deleted between scan and fetch
		}
		if err != nil {
			return nil, errors.StoreUnavailable(providerName, err)
		}
		var reg registry.ServiceRegistration
		if err := json.Unmarshal([]byte(raw), &reg); err != nil {
			s.log.Warn("skipping undecodable registry entry", logger.Fields(
				"key", iter.Val(),
				logger.FieldError, err.Error(),
			))
			continue
		}
		if q.Matches(&reg) {
			out = append(out, reg)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, errors.StoreUnavailable(providerName, err)
	}
	return out, nil
}

// Delete removes the registration. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, serviceName, version, serviceID string) error {
	if err := s.rdb.Del(ctx, s.fullKey(serviceName, version, serviceID)).Err(); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Close closes the Redis connection when the store owns it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}
