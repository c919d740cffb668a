package registry

import (
	"context"
	"testing"

	"github.com/sngor/regkit/errors"
)

func newTestClient() (*Client, *fakeStore) {
	store := newFakeStore()
	return NewClient(store, testLogger()), store
}

func TestClientLifecycle(t *testing.T) {
	c, _ := newTestClient()
	ctx := context.Background()

	if err := c.Register(ctx, validRegistration("billing", "1.0.0", "billing-1")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := c.GetService(ctx, "billing", "1.0.0", "billing-1")
	if err != nil || got == nil {
		t.Fatalf("GetService: %v, %v", got, err)
	}

	url, err := c.Endpoint(ctx, "billing", EndpointRest)
	if err != nil {
		t.Fatalf("Endpoint: %v", err)
	}
	if url != "https://api.example.com/billing" {
		t.Errorf("url = %s", url)
	}

	if err := c.Heartbeat(ctx, "billing", "1.0.0", "billing-1", StatusHealthy); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	if err := c.Unregister(ctx, "billing", "1.0.0", "billing-1"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if got, _ := c.GetService(ctx, "billing", "1.0.0", "billing-1"); got != nil {
		t.Error("registration still present after unregister")
	}
}

// A consumer needing a REST endpoint of a service whose only instance has
// gone unhealthy gets ENDPOINT_NOT_FOUND, not a stale URL.
func TestClientUnhealthyInstanceNotResolvable(t *testing.T) {
	c, _ := newTestClient()
	ctx := context.Background()

	if err := c.Register(ctx, validRegistration("billing", "1.0.0", "billing-1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := c.Endpoint(ctx, "billing", EndpointRest); err != nil {
		t.Fatalf("Endpoint while healthy: %v", err)
	}

	if err := c.Heartbeat(ctx, "billing", "1.0.0", "billing-1", StatusUnhealthy); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	_, err := c.Endpoint(ctx, "billing", EndpointRest)
	if !errors.IsCode(err, errors.ErrCodeEndpointNotFound) {
		t.Errorf("error = %v, want ENDPOINT_NOT_FOUND", err)
	}
}

func TestClientDiscover(t *testing.T) {
	c, _ := newTestClient()
	ctx := context.Background()

	tagged := validRegistration("billing", "1.0.0", "billing-1")
	tagged.Tags = []string{"payments"}
	plain := validRegistration("billing", "1.0.0", "billing-2")
	for _, r := range []*ServiceRegistration{tagged, plain} {
		if err := c.Register(ctx, r); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	got, err := c.Discover(ctx, Query{ServiceName: "billing", Tags: []string{"payments"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || got[0].ServiceID != "billing-1" {
		t.Errorf("tag filter matched wrong set: %+v", got)
	}
}

func TestClientStrategyOption(t *testing.T) {
	store := newFakeStore()
	c := NewClient(store, testLogger(), WithStrategy(StrategyFirst))
	if c.resolver.strategy != StrategyFirst {
		t.Errorf("strategy = %s, want first", c.resolver.strategy)
	}
}

func TestDefaultClient(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	SetDefault(nil)
	if err := Register(context.Background(), validRegistration("billing", "1.0.0", "billing-1")); err == nil {
		t.Fatal("expected error with no default client")
	}

	c, _ := newTestClient()
	SetDefault(c)
	ctx := context.Background()

	if err := Register(ctx, validRegistration("billing", "1.0.0", "billing-1")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := GetService(ctx, "billing", "1.0.0", "billing-1")
	if err != nil || got == nil {
		t.Fatalf("GetService: %v, %v", got, err)
	}
	if _, err := Endpoint(ctx, "billing", EndpointRest); err != nil {
		t.Fatalf("Endpoint: %v", err)
	}
	if err := Heartbeat(ctx, "billing", "1.0.0", "billing-1", StatusHealthy); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if _, err := Discover(ctx, Query{ServiceName: "billing"}); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if err := Unregister(ctx, "billing", "1.0.0", "billing-1"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
}
