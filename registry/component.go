package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sngor/regkit/component"
	"github.com/sngor/regkit/logger"
)

// Component wraps a Client and implements component.Component for lifecycle
// management: it builds the configured store on Start, optionally registers
// the local service and keeps its heartbeat fresh, and tears everything
// down on Stop.
type Component struct {
	client      *Client
	cfg         Config
	providerCfg any
	log         *logger.Logger
	opts        []ClientOption

	stopHeartbeat context.CancelFunc
	heartbeatDone chan struct{}
	mu            sync.Mutex
}

// NewComponent creates a registry Component for use with the component
// registry. providerCfg holds provider-specific configuration (e.g.,
// *redis.Config for the Redis store).
func NewComponent(cfg Config, providerCfg any, log *logger.Logger, opts ...ClientOption) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent("registry"),
		opts:        opts,
	}
}

// ensure Component satisfies component.Component.
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// Name returns the component name.
func (c *Component) Name() string { return "registry" }

// Client returns the registry Client, or nil if not started.
func (c *Component) Client() *Client { return c.client }

// Start builds the configured store, installs the default client, and
// begins self-registration when configured.
func (c *Component) Start(ctx context.Context) error {
	c.cfg.ApplyDefaults()

	if c.cfg.Enabled {
		if err := c.cfg.Validate(); err != nil {
			return fmt.Errorf("registry config: %w", err)
		}
	} else {
		c.log.Info("registry disabled, store-only mode", logger.Fields(
			logger.FieldProvider, c.cfg.Provider,
		))
	}

	store, err := NewStore(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("registry start: %w", err)
	}

	c.client = NewClient(store, c.log, c.opts...)
	if strategy := SelectionStrategy(c.cfg.Strategy); strategy.Valid() {
		WithStrategy(strategy)(c.client)
	}
	SetDefault(c.client)

	if c.cfg.Enabled && c.cfg.Registration.ServiceName != "" {
		if err := c.client.Register(ctx, c.cfg.BuildRegistration()); err != nil {
			return fmt.Errorf("registry: register self: %w", err)
		}
		if c.cfg.Registration.HeartbeatInterval > 0 {
			c.startHeartbeatLoop()
		}
	}

	c.log.Info("registry component started", logger.Fields(
		logger.FieldProvider, c.cfg.Provider,
	))
	return nil
}

// Stop deregisters the local service, stops the heartbeat loop, and closes
// the store.
func (c *Component) Stop(ctx context.Context) error {
	c.log.Info("registry component stopping")

	c.mu.Lock()
	if c.stopHeartbeat != nil {
		c.stopHeartbeat()
		done := c.heartbeatDone
		c.mu.Unlock()
		<-done
	} else {
		c.mu.Unlock()
	}

	if c.client == nil {
		return nil
	}

	reg := c.cfg.Registration
	if c.cfg.Enabled && reg.ServiceName != "" {
		if err := c.client.Unregister(ctx, reg.ServiceName, reg.Version, reg.ServiceID); err != nil {
			c.log.Warn("failed to unregister on stop", logger.ErrorFields("unregister", err))
		}
	}

	return c.client.Close()
}

// Health pings the backing store.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.client == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "registry not initialized",
		}
	}
	if err := c.client.Registry().Store().Ping(ctx); err != nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: err.Error(),
		}
	}
	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns infrastructure summary info.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s strategy=%s", c.cfg.Provider, c.cfg.Strategy)
	if c.cfg.Registration.ServiceName != "" {
		details += fmt.Sprintf(" service=%s", c.cfg.Registration.ServiceName)
	}
	return component.Description{
		Name:    "Registry",
		Type:    "registry",
		Details: details,
	}
}

func (c *Component) startHeartbeatLoop() {
	hbCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.stopHeartbeat = cancel
	c.heartbeatDone = done
	c.mu.Unlock()

	reg := c.cfg.Registration
	interval := reg.HeartbeatInterval

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := c.client.Heartbeat(hbCtx, reg.ServiceName, reg.Version, reg.ServiceID, StatusHealthy); err != nil {
					c.log.Warn("heartbeat failed", logger.ErrorFields("heartbeat", err))
				}
			}
		}
	}()
}
