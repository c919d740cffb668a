package registry

import (
	"context"
	"testing"
	"time"

	"github.com/sngor/regkit/component"
	"github.com/sngor/regkit/logger"
)

func init() {
	RegisterStoreFactory("fake", func(_ Config, _ any, _ *logger.Logger) (Store, error) {
		return newFakeStore(), nil
	})
}

func TestComponentStartStop(t *testing.T) {
	cfg := Config{
		Enabled:  true,
		Provider: "fake",
		Registration: RegistrationConfig{
			ServiceName: "billing",
			Version:     "1.0.0",
			ServiceID:   "billing-1",
			Endpoints: []EndpointConfig{
				{Type: "rest", URL: "https://api.example.com/billing", Methods: []string{"GET"}},
			},
		},
	}

	c := NewComponent(cfg, nil, testLogger())
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer SetDefault(nil)

	if c.Client() == nil {
		t.Fatal("client not initialised after Start")
	}
	if Default() != c.Client() {
		t.Error("default client not installed on Start")
	}

	// Self-registration happened.
	got, err := c.Client().GetService(ctx, "billing", "1.0.0", "billing-1")
	if err != nil {
		t.Fatalf("GetService: %v", err)
	}
	if got == nil {
		t.Fatal("component did not register itself")
	}

	h := c.Health(ctx)
	if h.Status != component.StatusHealthy {
		t.Errorf("health = %s, want healthy", h.Status)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponentHeartbeatLoop(t *testing.T) {
	cfg := Config{
		Enabled:  true,
		Provider: "fake",
		Registration: RegistrationConfig{
			ServiceName:       "billing",
			Version:           "1.0.0",
			ServiceID:         "billing-1",
			HeartbeatInterval: 10 * time.Millisecond,
			Endpoints: []EndpointConfig{
				{Type: "rest", URL: "https://api.example.com/billing", Methods: []string{"GET"}},
			},
		},
	}

	c := NewComponent(cfg, nil, testLogger())
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer SetDefault(nil)

	before, _ := c.Client().GetService(ctx, "billing", "1.0.0", "billing-1")

	deadline := time.Now().Add(2 * time.Second)
	for {
		after, _ := c.Client().GetService(ctx, "billing", "1.0.0", "billing-1")
		if after != nil && after.LastHeartbeat.After(before.LastHeartbeat) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("heartbeat loop never refreshed lastHeartbeat")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponentDisabledUsesMemoryProvider(t *testing.T) {
	// The memory backend registers itself from its own package; here only
	// the fake factory exists, so stand it in for the disabled path.
	c := NewComponent(Config{Provider: "fake"}, nil, testLogger())
	ctx := context.Background()

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer SetDefault(nil)

	if c.Client() == nil {
		t.Fatal("client not initialised for disabled component")
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponentUnknownProvider(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Provider: "etcd"}, nil, testLogger())
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}
