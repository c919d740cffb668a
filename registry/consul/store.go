// Package consul provides a Consul-backed registry store. Registrations
// are stored as JSON documents in the Consul KV tree under the configured
// key prefix; queries list the subtree and filter client-side.
package consul

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/sngor/regkit/errors"
	"github.com/sngor/regkit/logger"
	"github.com/sngor/regkit/registry"
)

const providerName = "consul"

// Config holds Consul connection configuration for the registry store.
type Config struct {
	// Addr is the Consul agent address (host:port).
	Addr string `mapstructure:"addr"`

	// Scheme is the URI scheme for Consul ("http" or "https").
	Scheme string `mapstructure:"scheme"`

	// Token is the Consul ACL token for authentication.
	Token string `mapstructure:"token"`

	// Datacenter is the Consul datacenter name.
	Datacenter string `mapstructure:"datacenter"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:8500"
	}
	if c.Scheme == "" {
		c.Scheme = "http"
	}
}

// Store implements registry.Store on the Consul KV tree.
type Store struct {
	kv        *api.KV
	keyPrefix string
	log       *logger.Logger
}

func init() {
	registry.RegisterStoreFactory(providerName, func(cfg registry.Config, providerCfg any, log *logger.Logger) (registry.Store, error) {
		cc, ok := providerCfg.(*Config)
		if !ok || cc == nil {
			return nil, fmt.Errorf("consul store requires *consul.Config, got %T", providerCfg)
		}
		return NewStore(*cc, cfg.KeyPrefix, log)
	})
}

// NewStore creates a Consul-backed store rooted at keyPrefix in the KV tree.
func NewStore(cfg Config, keyPrefix string, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Address = cfg.Addr
	apiCfg.Scheme = cfg.Scheme
	apiCfg.Token = cfg.Token
	if cfg.Datacenter != "" {
		apiCfg.Datacenter = cfg.Datacenter
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	log = log.WithComponent("registry-consul")
	log.Info("consul registry store created", logger.Fields(
		"addr", cfg.Addr,
		"key_prefix", keyPrefix,
	))

	return &Store{
		kv:        client.KV(),
		keyPrefix: keyPrefix,
		log:       log,
	}, nil
}

// NewStoreFromClient wraps an existing Consul API client.
func NewStoreFromClient(client *api.Client, keyPrefix string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Store{
		kv:        client.KV(),
		keyPrefix: keyPrefix,
		log:       log.WithComponent("registry-consul"),
	}
}

// ensure Store satisfies registry.Store.
var _ registry.Store = (*Store)(nil)

func (s *Store) fullKey(serviceName, version, serviceID string) string {
	key := registry.RegistrationKey(serviceName, version, serviceID)
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + "/" + key
}

// Put stores the registration as a JSON document in the KV tree.
func (s *Store) Put(ctx context.Context, reg *registry.ServiceRegistration) error {
	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration %q: %w", reg.Key(), err)
	}

	pair := &api.KVPair{
		Key:   s.fullKey(reg.ServiceName, reg.Version, reg.ServiceID),
		Value: data,
	}
	if _, err := s.kv.Put(pair, writeOptions(ctx)); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Get returns the registration for the triple, or (nil, nil) if absent.
func (s *Store) Get(ctx context.Context, serviceName, version, serviceID string) (*registry.ServiceRegistration, error) {
	pair, _, err := s.kv.Get(s.fullKey(serviceName, version, serviceID), queryOptions(ctx))
	if err != nil {
		return nil, errors.StoreUnavailable(providerName, err)
	}
	if pair == nil {
		return nil, nil
	}

	var reg registry.ServiceRegistration
	if err := json.Unmarshal(pair.Value, &reg); err != nil {
		return nil, fmt.Errorf("unmarshal registration %s/%s/%s: %w", serviceName, version, serviceID, err)
	}
	return &reg, nil
}

// Query lists the KV subtree and filters registrations client-side. When
// the query names a service, only that service's subtree is listed.
func (s *Store) Query(ctx context.Context, q registry.Query) ([]registry.ServiceRegistration, error) {
	prefix := s.keyPrefix
	if q.ServiceName != "" {
		if prefix != "" {
			prefix += "/"
		}
		prefix += q.ServiceName + registry.KeySeparator
	}

	pairs, _, err := s.kv.List(prefix, queryOptions(ctx))
	if err != nil {
		return nil, errors.StoreUnavailable(providerName, err)
	}

	var out []registry.ServiceRegistration
	for _, pair := range pairs {
		var reg registry.ServiceRegistration
		if err := json.Unmarshal(pair.Value, &reg); err != nil {
			s.log.Warn("skipping undecodable registry entry", logger.Fields(
				"key", pair.Key,
				logger.FieldError, err.Error(),
			))
			continue
		}
		if q.Matches(&reg) {
			out = append(out, reg)
		}
	}
	return out, nil
}

// Delete removes the registration. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, serviceName, version, serviceID string) error {
	if _, err := s.kv.Delete(s.fullKey(serviceName, version, serviceID), writeOptions(ctx)); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Ping verifies the Consul agent is reachable via a cheap KV read.
func (s *Store) Ping(ctx context.Context) error {
	if _, _, err := s.kv.Get(s.keyPrefix, queryOptions(ctx)); err != nil {
		return errors.StoreUnavailable(providerName, err)
	}
	return nil
}

// Close is a no-op; the Consul API client holds no persistent connection.
func (s *Store) Close() error { return nil }

func queryOptions(ctx context.Context) *api.QueryOptions {
	return (&api.QueryOptions{}).WithContext(ctx)
}

func writeOptions(ctx context.Context) *api.WriteOptions {
	return (&api.WriteOptions{}).WithContext(ctx)
}
