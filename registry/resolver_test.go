package registry

import (
	"context"
	"testing"

	"github.com/sngor/regkit/errors"
)

func resolverFixture(t *testing.T) *Registry {
	t.Helper()
	store := newFakeStore()
	reg := NewRegistry(store, testLogger())
	ctx := context.Background()

	a := validRegistration("billing", "1.0.0", "billing-1")
	a.Endpoints[0].URL = "https://a.example.com"

	b := validRegistration("billing", "1.0.0", "billing-2")
	b.Endpoints[0].URL = "https://b.example.com"

	down := validRegistration("billing", "1.0.0", "billing-3")
	down.Status = StatusUnhealthy
	down.Endpoints[0].URL = "https://down.example.com"

	grpcOnly := validRegistration("ledger", "1.0.0", "ledger-1")
	grpcOnly.Endpoints = []ServiceEndpoint{{
		Type:    EndpointGRPC,
		URL:     "https://grpc.ledger.example.com",
		Methods: []string{"*"},
	}}

	for _, r := range []*ServiceRegistration{a, b, down, grpcOnly} {
		if err := reg.Register(ctx, r); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return reg
}

func TestEndpointSkipsUnhealthy(t *testing.T) {
	reg := resolverFixture(t)
	rs := NewResolver(reg, StrategyFirst)

	for i := 0; i < 10; i++ {
		url, err := rs.Endpoint(context.Background(), "billing", EndpointRest)
		if err != nil {
			t.Fatalf("Endpoint: %v", err)
		}
		if url == "https://down.example.com" {
			t.Fatal("resolved endpoint of unhealthy instance")
		}
	}
}

func TestEndpointNotFoundWrongType(t *testing.T) {
	reg := resolverFixture(t)
	rs := NewResolver(reg, StrategyFirst)

	_, err := rs.Endpoint(context.Background(), "billing", EndpointGraphQL)
	if err == nil {
		t.Fatal("expected ENDPOINT_NOT_FOUND, got nil")
	}
	if !errors.IsCode(err, errors.ErrCodeEndpointNotFound) {
		t.Errorf("error = %v, want ENDPOINT_NOT_FOUND", err)
	}
	appErr, _ := errors.AsAppError(err)
	if appErr.Retryable {
		t.Error("endpoint not found must not be retryable")
	}
}

func TestEndpointNotFoundAllUnhealthy(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, testLogger())
	ctx := context.Background()

	down := validRegistration("billing", "1.0.0", "billing-1")
	down.Status = StatusUnhealthy
	if err := reg.Register(ctx, down); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rs := NewResolver(reg, StrategyFirst)
	_, err := rs.Endpoint(ctx, "billing", EndpointRest)
	if !errors.IsCode(err, errors.ErrCodeEndpointNotFound) {
		t.Errorf("error = %v, want ENDPOINT_NOT_FOUND", err)
	}
}

func TestEndpointNotFoundUnknownService(t *testing.T) {
	reg := resolverFixture(t)
	rs := NewResolver(reg, StrategyFirst)

	_, err := rs.Endpoint(context.Background(), "ghost", EndpointRest)
	if !errors.IsCode(err, errors.ErrCodeEndpointNotFound) {
		t.Errorf("error = %v, want ENDPOINT_NOT_FOUND", err)
	}
}

func TestRoundRobinRotates(t *testing.T) {
	reg := resolverFixture(t)
	rs := NewResolver(reg, StrategyRoundRobin)
	ctx := context.Background()

	seen := make(map[string]int)
	for i := 0; i < 6; i++ {
		url, err := rs.Endpoint(ctx, "billing", EndpointRest)
		if err != nil {
			t.Fatalf("Endpoint: %v", err)
		}
		seen[url]++
	}

	if len(seen) != 2 {
		t.Fatalf("round robin visited %d endpoints, want 2: %v", len(seen), seen)
	}
	for url, n := range seen {
		if n != 3 {
			t.Errorf("uneven rotation: %s picked %d times", url, n)
		}
	}
}

func TestRandomStaysWithinHealthySet(t *testing.T) {
	reg := resolverFixture(t)
	rs := NewResolver(reg, StrategyRandom)
	ctx := context.Background()

	valid := map[string]bool{
		"https://a.example.com": true,
		"https://b.example.com": true,
	}
	for i := 0; i < 20; i++ {
		url, err := rs.Endpoint(ctx, "billing", EndpointRest)
		if err != nil {
			t.Fatalf("Endpoint: %v", err)
		}
		if !valid[url] {
			t.Fatalf("random selection outside healthy set: %s", url)
		}
	}
}

func TestResolveEndpointReturnsAuth(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, testLogger())
	ctx := context.Background()

	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Endpoints[0].Authentication = AuthenticationConfig{
		Type:     AuthAPIKey,
		Required: true,
		Config:   map[string]any{"header": "X-Api-Key"},
	}
	if err := reg.Register(ctx, r); err != nil {
		t.Fatalf("Register: %v", err)
	}

	rs := NewResolver(reg, StrategyFirst)
	ep, err := rs.ResolveEndpoint(ctx, "billing", EndpointRest)
	if err != nil {
		t.Fatalf("ResolveEndpoint: %v", err)
	}
	if ep.Authentication.Type != AuthAPIKey || !ep.Authentication.Required {
		t.Errorf("auth config not carried through: %+v", ep.Authentication)
	}
}

func TestUnknownStrategyFallsBackToRoundRobin(t *testing.T) {
	reg := resolverFixture(t)
	rs := NewResolver(reg, SelectionStrategy("least_conn"))
	if rs.strategy != StrategyRoundRobin {
		t.Errorf("strategy = %s, want round_robin fallback", rs.strategy)
	}
}
