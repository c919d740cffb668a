package registry

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sngor/regkit/errors"
)

// SelectionStrategy defines how a resolver picks among multiple healthy
// instances of a service.
type SelectionStrategy string

const (
	StrategyFirst      SelectionStrategy = "first"
	StrategyRandom     SelectionStrategy = "random"
	StrategyRoundRobin SelectionStrategy = "round_robin"
)

// Valid reports whether the strategy is one of the supported values.
func (s SelectionStrategy) Valid() bool {
	switch s {
	case StrategyFirst, StrategyRandom, StrategyRoundRobin:
		return true
	}
	return false
}

// Resolver turns a service name and endpoint type into a concrete URL.
// Only healthy registrations are considered; when several qualify, the
// configured strategy picks one.
type Resolver struct {
	registry *Registry
	strategy SelectionStrategy
	r        *rand.Rand
	mu       sync.Mutex
	rrIndex  map[string]int
}

// NewResolver creates a Resolver over the given registry. An empty or
// unknown strategy falls back to round robin.
func NewResolver(reg *Registry, strategy SelectionStrategy) *Resolver {
	if !strategy.Valid() {
		strategy = StrategyRoundRobin
	}
	return &Resolver{
		registry: reg,
		strategy: strategy,
		r:        rand.New(rand.NewSource(time.Now().UnixNano())),
		rrIndex:  make(map[string]int),
	}
}

// Endpoint resolves the URL of an endpoint of the given type on any healthy
// instance of the named service. When no healthy instance carries an
// endpoint of that type, an ENDPOINT_NOT_FOUND error is returned; callers
// should treat it as an expected outcome, not a retryable failure.
func (rs *Resolver) Endpoint(ctx context.Context, serviceName string, endpointType EndpointType) (string, error) {
	ep, err := rs.ResolveEndpoint(ctx, serviceName, endpointType)
	if err != nil {
		return "", err
	}
	return ep.URL, nil
}

// ResolveEndpoint is like Endpoint but returns the full endpoint record,
// including its authentication configuration.
func (rs *Resolver) ResolveEndpoint(ctx context.Context, serviceName string, endpointType EndpointType) (*ServiceEndpoint, error) {
	regs, err := rs.registry.Discover(ctx, Query{ServiceName: serviceName, Status: StatusHealthy})
	if err != nil {
		return nil, err
	}

	var candidates []*ServiceEndpoint
	for i := range regs {
		if ep, ok := regs[i].Endpoint(endpointType); ok {
			candidates = append(candidates, ep)
		}
	}
	if len(candidates) == 0 {
		return nil, errors.EndpointNotFound(serviceName, string(endpointType))
	}

	return rs.pick(serviceName, endpointType, candidates), nil
}

func (rs *Resolver) pick(serviceName string, endpointType EndpointType, candidates []*ServiceEndpoint) *ServiceEndpoint {
	if len(candidates) == 1 {
		return candidates[0]
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	switch rs.strategy {
	case StrategyFirst:
		return candidates[0]
	case StrategyRandom:
		return candidates[rs.r.Intn(len(candidates))]
	default: // round robin
		key := serviceName + ":" + string(endpointType)
		idx := rs.rrIndex[key]
		ep := candidates[idx%len(candidates)]
		rs.rrIndex[key] = (idx + 1) % len(candidates)
		return ep
	}
}
