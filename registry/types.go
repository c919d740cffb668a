package registry

import (
	"strings"
	"time"

	"github.com/sngor/regkit/validation"
)

// Status is the authoritative health of a registration as last reported.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Valid reports whether the status is one of the supported values.
func (s Status) Valid() bool {
	switch s {
	case StatusHealthy, StatusUnhealthy, StatusUnknown:
		return true
	}
	return false
}

// EndpointType identifies the transport of a service endpoint.
type EndpointType string

const (
	EndpointRest      EndpointType = "rest"
	EndpointGraphQL   EndpointType = "graphql"
	EndpointGRPC      EndpointType = "grpc"
	EndpointWebSocket EndpointType = "websocket"
)

// Valid reports whether the endpoint type is one of the supported values.
func (t EndpointType) Valid() bool {
	switch t {
	case EndpointRest, EndpointGraphQL, EndpointGRPC, EndpointWebSocket:
		return true
	}
	return false
}

// AuthType identifies how a caller must authenticate to an endpoint.
type AuthType string

const (
	AuthNone    AuthType = "none"
	AuthAPIKey  AuthType = "api-key"
	AuthJWT     AuthType = "jwt"
	AuthIAM     AuthType = "iam"
	AuthCognito AuthType = "cognito"
)

// AuthenticationConfig describes how a caller authenticates to an endpoint.
// The registry stores it unmodified and never enforces it.
type AuthenticationConfig struct {
	Type     AuthType       `json:"type" validate:"required,oneof=none api-key jwt iam cognito"`
	Required bool           `json:"required"`
	Config   map[string]any `json:"config,omitempty"`
}

// ServiceEndpoint is one reachable transport surface of a service.
type ServiceEndpoint struct {
	Type           EndpointType         `json:"type" validate:"required,oneof=rest graphql grpc websocket"`
	URL            string               `json:"url" validate:"required,url"`
	Methods        []string             `json:"methods" validate:"min=1"`
	Authentication AuthenticationConfig `json:"authentication"`
}

// ServiceRegistration is the unit of registration: one running instance of
// one version of a named service.
type ServiceRegistration struct {
	ServiceID      string            `json:"serviceId" validate:"required"`
	ServiceName    string            `json:"serviceName" validate:"required"`
	Version        string            `json:"version" validate:"required"`
	Endpoints      []ServiceEndpoint `json:"endpoints" validate:"min=1,dive"`
	HealthCheckURL string            `json:"healthCheckUrl" validate:"omitempty,url"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	Status         Status            `json:"status" validate:"omitempty,oneof=healthy unhealthy unknown"`
	Tags           []string          `json:"tags,omitempty"`
	RegisteredAt   time.Time         `json:"registeredAt"`
	LastHeartbeat  time.Time         `json:"lastHeartbeat"`
}

// KeySeparator joins the identity triple into a flat store key.
const KeySeparator = "/"

// Key renders the identity triple as "serviceName/version/serviceId".
func (r *ServiceRegistration) Key() string {
	return RegistrationKey(r.ServiceName, r.Version, r.ServiceID)
}

// RegistrationKey renders an identity triple as a flat store key.
func RegistrationKey(serviceName, version, serviceID string) string {
	return strings.Join([]string{serviceName, version, serviceID}, KeySeparator)
}

// Normalize fills defaulted fields in place: an unset status becomes
// unknown, and authentication of type none is never required.
func (r *ServiceRegistration) Normalize() {
	if r.Status == "" {
		r.Status = StatusUnknown
	}
	for i := range r.Endpoints {
		if r.Endpoints[i].Authentication.Type == "" {
			r.Endpoints[i].Authentication.Type = AuthNone
		}
		if r.Endpoints[i].Authentication.Type == AuthNone {
			r.Endpoints[i].Authentication.Required = false
		}
	}
}

// Validate checks the registration against the boundary rules: non-empty
// identity fields, at least one endpoint, and closed enum values.
func (r *ServiceRegistration) Validate() error {
	return validation.Validate(r)
}

// Endpoint returns the first endpoint of the given type, if any.
func (r *ServiceRegistration) Endpoint(t EndpointType) (*ServiceEndpoint, bool) {
	for i := range r.Endpoints {
		if r.Endpoints[i].Type == t {
			return &r.Endpoints[i], true
		}
	}
	return nil, false
}

// HasTag reports whether the registration carries the given tag.
func (r *ServiceRegistration) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the registration. Stores hand out clones so
// callers can never mutate shared state.
func (r *ServiceRegistration) Clone() *ServiceRegistration {
	out := *r

	out.Endpoints = make([]ServiceEndpoint, len(r.Endpoints))
	for i, ep := range r.Endpoints {
		cp := ep
		cp.Methods = append([]string(nil), ep.Methods...)
		if ep.Authentication.Config != nil {
			cp.Authentication.Config = make(map[string]any, len(ep.Authentication.Config))
			for k, v := range ep.Authentication.Config {
				cp.Authentication.Config[k] = v
			}
		}
		out.Endpoints[i] = cp
	}

	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Tags = append([]string(nil), r.Tags...)

	return &out
}
