package registry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sngor/regkit/errors"
	"github.com/sngor/regkit/logger"
	"github.com/sngor/regkit/observability"
)

// Client is the high-level registry facade. It bundles the registration
// protocol, discovery queries, and endpoint resolution behind one API and
// instruments every call with traces and metrics.
type Client struct {
	registry *Registry
	resolver *Resolver
	metrics  *observability.Metrics
	log      *logger.Logger
}

// ClientOption customises a Client at construction time.
type ClientOption func(*Client)

// WithMetrics attaches a metrics recorder to the client. Without it, calls
// are traced but not counted.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithStrategy overrides the endpoint selection strategy.
func WithStrategy(s SelectionStrategy) ClientOption {
	return func(c *Client) { c.resolver = NewResolver(c.registry, s) }
}

// NewClient creates a Client over the given store.
func NewClient(store Store, log *logger.Logger, opts ...ClientOption) *Client {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	reg := NewRegistry(store, log)
	c := &Client{
		registry: reg,
		resolver: NewResolver(reg, StrategyRoundRobin),
		log:      log.WithComponent("registry-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry exposes the underlying Registry for callers that need the
// lower-level API.
func (c *Client) Registry() *Registry { return c.registry }

// Register validates and upserts a registration.
func (c *Client) Register(ctx context.Context, reg *ServiceRegistration) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanRegister)
	defer span.End()
	if reg != nil {
		observability.SetSpanAttribute(ctx, observability.AttrServiceName, reg.ServiceName)
		observability.SetSpanAttribute(ctx, observability.AttrServiceID, reg.ServiceID)
		observability.SetSpanAttribute(ctx, observability.AttrVersion, reg.Version)
	}

	start := time.Now()
	err := c.registry.Register(ctx, reg)
	c.record(ctx, serviceName(reg), "register", start, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordRegistration(ctx, reg.ServiceName, 1)
	}
	return nil
}

// Unregister removes the registration for the identity triple. Removing an
// absent registration is not an error.
func (c *Client) Unregister(ctx context.Context, name, version, serviceID string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanUnregister)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, name)
	observability.SetSpanAttribute(ctx, observability.AttrServiceID, serviceID)

	start := time.Now()
	err := c.registry.Unregister(ctx, name, version, serviceID)
	c.record(ctx, name, "unregister", start, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordRegistration(ctx, name, -1)
	}
	return nil
}

// GetService returns the registration for the identity triple, or
// (nil, nil) when none exists.
func (c *Client) GetService(ctx context.Context, name, version, serviceID string) (*ServiceRegistration, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGetService)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, name)

	start := time.Now()
	reg, err := c.registry.GetService(ctx, name, version, serviceID)
	c.record(ctx, name, "get_service", start, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	return reg, nil
}

// Discover returns the registrations matching the query.
func (c *Client) Discover(ctx context.Context, q Query) ([]ServiceRegistration, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDiscover)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, q.ServiceName)
	if q.Status != "" {
		observability.SetSpanAttribute(ctx, observability.AttrStatus, string(q.Status))
	}

	start := time.Now()
	regs, err := c.registry.Discover(ctx, q)
	c.record(ctx, q.ServiceName, "discover", start, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrResultCount, len(regs))
	if c.metrics != nil {
		c.metrics.RecordDiscovery(ctx, q.ServiceName, len(regs))
	}
	return regs, nil
}

// Endpoint resolves the URL of an endpoint of the given type on any healthy
// instance of the named service.
func (c *Client) Endpoint(ctx context.Context, name string, endpointType EndpointType) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanEndpoint)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, name)
	observability.SetSpanAttribute(ctx, observability.AttrEndpointType, string(endpointType))

	start := time.Now()
	url, err := c.resolver.Endpoint(ctx, name, endpointType)
	c.record(ctx, name, "endpoint", start, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return "", err
	}
	return url, nil
}

// ResolveEndpoint is like Endpoint but returns the full endpoint record.
func (c *Client) ResolveEndpoint(ctx context.Context, name string, endpointType EndpointType) (*ServiceEndpoint, error) {
	return c.resolver.ResolveEndpoint(ctx, name, endpointType)
}

// Heartbeat records a liveness report against an existing registration.
func (c *Client) Heartbeat(ctx context.Context, name, version, serviceID string, status Status) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanHeartbeat)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrServiceName, name)
	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(status))

	start := time.Now()
	err := c.registry.UpdateHeartbeat(ctx, name, version, serviceID, status)
	c.record(ctx, name, "heartbeat", start, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	return nil
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.registry.Store().Close()
}

func (c *Client) record(ctx context.Context, service, operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		if appErr, ok := errors.AsAppError(err); ok {
			c.metrics.RecordError(ctx, string(appErr.Code), "registry")
		}
	}
	c.metrics.RecordOperation(ctx, service, operation, status, time.Since(start))
}

func serviceName(reg *ServiceRegistration) string {
	if reg == nil {
		return ""
	}
	return reg.ServiceName
}

// Default client singleton, mirroring the global logger pattern: wire once
// at startup, use package-level functions everywhere else.
var (
	defaultClient *Client
	defaultMu     sync.RWMutex
)

// SetDefault installs the process-wide default client.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultClient = c
}

// Default returns the process-wide default client, or nil when none has
// been installed.
func Default() *Client {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient
}

// errNoDefaultClient is returned by package-level functions before
// SetDefault has been called.
var errNoDefaultClient = errors.New(errors.ErrCodeInternal, "no default registry client installed", http.StatusInternalServerError)

// Register upserts a registration via the default client.
func Register(ctx context.Context, reg *ServiceRegistration) error {
	c := Default()
	if c == nil {
		return errNoDefaultClient
	}
	return c.Register(ctx, reg)
}

// Unregister removes a registration via the default client.
func Unregister(ctx context.Context, name, version, serviceID string) error {
	c := Default()
	if c == nil {
		return errNoDefaultClient
	}
	return c.Unregister(ctx, name, version, serviceID)
}

// GetService fetches a registration via the default client.
func GetService(ctx context.Context, name, version, serviceID string) (*ServiceRegistration, error) {
	c := Default()
	if c == nil {
		return nil, errNoDefaultClient
	}
	return c.GetService(ctx, name, version, serviceID)
}

// Discover queries registrations via the default client.
func Discover(ctx context.Context, q Query) ([]ServiceRegistration, error) {
	c := Default()
	if c == nil {
		return nil, errNoDefaultClient
	}
	return c.Discover(ctx, q)
}

// Endpoint resolves an endpoint URL via the default client.
func Endpoint(ctx context.Context, name string, endpointType EndpointType) (string, error) {
	c := Default()
	if c == nil {
		return "", errNoDefaultClient
	}
	return c.Endpoint(ctx, name, endpointType)
}

// Heartbeat records a liveness report via the default client.
func Heartbeat(ctx context.Context, name, version, serviceID string, status Status) error {
	c := Default()
	if c == nil {
		return errNoDefaultClient
	}
	return c.Heartbeat(ctx, name, version, serviceID, status)
}
