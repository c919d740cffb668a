package registry

import (
	"encoding/json"
	"testing"
)

func TestRegistrationKey(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	if got, want := r.Key(), "billing/1.0.0/billing-1"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestNormalizeDefaultsStatus(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Status = ""
	r.Normalize()
	if r.Status != StatusUnknown {
		t.Errorf("status = %s, want unknown", r.Status)
	}
}

func TestNormalizeAuthNone(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Endpoints[0].Authentication = AuthenticationConfig{Type: AuthNone, Required: true}
	r.Normalize()
	if r.Endpoints[0].Authentication.Required {
		t.Error("auth type none must never be required")
	}

	// An empty auth type defaults to none.
	r.Endpoints[0].Authentication = AuthenticationConfig{Required: true}
	r.Normalize()
	if r.Endpoints[0].Authentication.Type != AuthNone {
		t.Errorf("auth type = %s, want none", r.Endpoints[0].Authentication.Type)
	}
	if r.Endpoints[0].Authentication.Required {
		t.Error("defaulted auth none must not be required")
	}
}

func TestNormalizeKeepsOtherAuthTypes(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Endpoints[0].Authentication = AuthenticationConfig{Type: AuthJWT, Required: true}
	r.Normalize()
	if r.Endpoints[0].Authentication.Type != AuthJWT || !r.Endpoints[0].Authentication.Required {
		t.Errorf("jwt auth altered: %+v", r.Endpoints[0].Authentication)
	}
}

func TestEndpointLookup(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Endpoints = append(r.Endpoints, ServiceEndpoint{
		Type:    EndpointGRPC,
		URL:     "https://grpc.example.com",
		Methods: []string{"*"},
	})

	if ep, ok := r.Endpoint(EndpointGRPC); !ok || ep.URL != "https://grpc.example.com" {
		t.Errorf("Endpoint(grpc) = %+v, %v", ep, ok)
	}
	if _, ok := r.Endpoint(EndpointWebSocket); ok {
		t.Error("Endpoint(websocket) should not match")
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	r.Tags = []string{"payments"}
	r.Metadata = map[string]any{"region": "us-east-1"}
	r.Endpoints[0].Authentication.Config = map[string]any{"issuer": "https://idp.example.com"}

	c := r.Clone()
	c.Tags[0] = "mutated"
	c.Metadata["region"] = "eu-west-1"
	c.Endpoints[0].Methods[0] = "DELETE"
	c.Endpoints[0].Authentication.Config["issuer"] = "mutated"

	if r.Tags[0] != "payments" {
		t.Error("clone shares tags slice")
	}
	if r.Metadata["region"] != "us-east-1" {
		t.Error("clone shares metadata map")
	}
	if r.Endpoints[0].Methods[0] != "GET" {
		t.Error("clone shares endpoint methods slice")
	}
	if r.Endpoints[0].Authentication.Config["issuer"] != "https://idp.example.com" {
		t.Error("clone shares auth config map")
	}
}

func TestRegistrationJSONShape(t *testing.T) {
	r := validRegistration("billing", "1.0.0", "billing-1")
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"serviceId", "serviceName", "version", "endpoints", "status"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshalled registration missing %q key", key)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusHealthy, StatusUnhealthy, StatusUnknown} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("degraded").Valid() {
		t.Error("degraded is not a registration status")
	}
}
