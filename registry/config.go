package registry

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sngor/regkit/version"
)

// Config holds service registry configuration.
type Config struct {
	// Enabled controls whether the registry component is active.
	Enabled bool `mapstructure:"enabled"`

	// Provider selects the store backend: "memory", "redis", "consul", or "gorm".
	Provider string `mapstructure:"provider"`

	// Strategy selects how the resolver picks among multiple healthy
	// endpoints: "first", "random", or "round_robin".
	Strategy string `mapstructure:"strategy"`

	// KeyPrefix namespaces registry entries in shared stores.
	KeyPrefix string `mapstructure:"key_prefix"`

	// Registration describes this process's own service registration.
	// Leave ServiceName empty to disable self-registration.
	Registration RegistrationConfig `mapstructure:"registration"`
}

// RegistrationConfig describes the local service instance registered on
// component start.
type RegistrationConfig struct {
	// ServiceName is the logical service name.
	ServiceName string `mapstructure:"service_name"`

	// Version is the deployed service version.
	Version string `mapstructure:"version"`

	// ServiceID is the unique instance ID; a random suffix is generated
	// from ServiceName when empty.
	ServiceID string `mapstructure:"service_id"`

	// Endpoints are the endpoints this instance exposes.
	Endpoints []EndpointConfig `mapstructure:"endpoints"`

	// HealthCheckURL is the instance's health probe URL.
	HealthCheckURL string `mapstructure:"health_check_url"`

	// Tags are searchable labels attached to the registration.
	Tags []string `mapstructure:"tags"`

	// Metadata is arbitrary key-value metadata for the registration.
	Metadata map[string]string `mapstructure:"metadata"`

	// HeartbeatInterval controls how often the component refreshes the
	// instance's heartbeat. Zero disables the heartbeat loop.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// EndpointConfig describes a single endpoint in configuration form.
type EndpointConfig struct {
	Type    string   `mapstructure:"type"`
	URL     string   `mapstructure:"url"`
	Methods []string `mapstructure:"methods"`
}

// ApplyDefaults fills zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = "memory"
	}
	if c.Strategy == "" {
		c.Strategy = string(StrategyRoundRobin)
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "registry"
	}
	if c.Registration.ServiceName != "" {
		if c.Registration.Version == "" {
			c.Registration.Version = version.Default()
		}
		if c.Registration.ServiceID == "" {
			c.Registration.ServiceID = c.Registration.ServiceName + "-" + uuid.NewString()[:8]
		}
	}
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if s := SelectionStrategy(c.Strategy); c.Strategy != "" && !s.Valid() {
		return fmt.Errorf("unsupported selection strategy %q", c.Strategy)
	}
	if c.Registration.ServiceName != "" {
		if len(c.Registration.Endpoints) == 0 {
			return fmt.Errorf("registration.endpoints is required when registration.service_name is set")
		}
		for i, ep := range c.Registration.Endpoints {
			if !EndpointType(ep.Type).Valid() {
				return fmt.Errorf("registration.endpoints[%d]: unsupported endpoint type %q", i, ep.Type)
			}
			if ep.URL == "" {
				return fmt.Errorf("registration.endpoints[%d]: url is required", i)
			}
			if len(ep.Methods) == 0 {
				return fmt.Errorf("registration.endpoints[%d]: at least one method is required", i)
			}
		}
	}
	return nil
}

// BuildRegistration converts the registration section into a
// ServiceRegistration ready to pass to Register.
func (c *Config) BuildRegistration() *ServiceRegistration {
	r := &ServiceRegistration{
		ServiceID:      c.Registration.ServiceID,
		ServiceName:    c.Registration.ServiceName,
		Version:        c.Registration.Version,
		Status:         StatusHealthy,
		HealthCheckURL: c.Registration.HealthCheckURL,
		Tags:           append([]string(nil), c.Registration.Tags...),
	}
	for _, ep := range c.Registration.Endpoints {
		r.Endpoints = append(r.Endpoints, ServiceEndpoint{
			Type:    EndpointType(ep.Type),
			URL:     ep.URL,
			Methods: append([]string(nil), ep.Methods...),
		})
	}
	if len(c.Registration.Metadata) > 0 {
		r.Metadata = make(map[string]any, len(c.Registration.Metadata))
		for k, v := range c.Registration.Metadata {
			r.Metadata[k] = v
		}
	}
	return r
}
