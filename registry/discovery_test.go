package registry

import (
	"context"
	"testing"
)

func TestQueryMatches(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Status = StatusHealthy
	r.Tags = []string{"payments", "core"}

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"empty matches", Query{}, true},
		{"name match", Query{ServiceName: "billing"}, true},
		{"name mismatch", Query{ServiceName: "users"}, false},
		{"status match", Query{Status: StatusHealthy}, true},
		{"status mismatch", Query{Status: StatusUnhealthy}, false},
		{"tag subset", Query{Tags: []string{"core"}}, true},
		{"full tag set", Query{Tags: []string{"payments", "core"}}, true},
		{"missing tag", Query{Tags: []string{"payments", "internal"}}, false},
		{"all filters", Query{ServiceName: "billing", Status: StatusHealthy, Tags: []string{"payments"}}, true},
		{"one filter fails", Query{ServiceName: "billing", Status: StatusUnhealthy, Tags: []string{"payments"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Matches(r); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryIsEmpty(t *testing.T) {
	if !(Query{}).IsEmpty() {
		t.Error("zero query should be empty")
	}
	if (Query{ServiceName: "billing"}).IsEmpty() {
		t.Error("query with name filter is not empty")
	}
}

func TestDiscoverByName(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, testLogger())
	ctx := context.Background()

	for _, r := range []*ServiceRegistration{
		validRegistration("billing", "1.0.0", "billing-1"),
		validRegistration("billing", "1.1.0", "billing-2"),
		validRegistration("users", "2.0.0", "users-1"),
	} {
		if err := reg.Register(ctx, r); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	got, err := reg.Discover(ctx, Query{ServiceName: "billing"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d registrations, want 2", len(got))
	}
	for _, r := range got {
		if r.ServiceName != "billing" {
			t.Errorf("unexpected service in results: %s", r.ServiceName)
		}
	}
}

func TestDiscoverStatusFilterIsExact(t *testing.T) {
	store := newFakeStore()
	reg := NewRegistry(store, testLogger())
	ctx := context.Background()

	healthy := validRegistration("billing", "1.0.0", "billing-1")
	unknown := validRegistration("billing", "1.0.0", "billing-2")
	unknown.Status = ""
	for _, r := range []*ServiceRegistration{healthy, unknown} {
		if err := reg.Register(ctx, r); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	// A healthy filter must not match unknown-status registrations.
	got, err := reg.Discover(ctx, Query{ServiceName: "billing", Status: StatusHealthy})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || got[0].ServiceID != "billing-1" {
		t.Errorf("healthy filter matched wrong set: %+v", got)
	}

	got, err = reg.Discover(ctx, Query{ServiceName: "billing", Status: StatusUnknown})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 1 || got[0].ServiceID != "billing-2" {
		t.Errorf("unknown filter matched wrong set: %+v", got)
	}
}

func TestDiscoverNoMatchesReturnsEmpty(t *testing.T) {
	reg := NewRegistry(newFakeStore(), testLogger())

	got, err := reg.Discover(context.Background(), Query{ServiceName: "ghost"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}
