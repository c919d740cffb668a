package registry

import (
	"context"
)

// Query defines parameters for a discovery query. All supplied fields are
// ANDed; a zero Query matches every registration.
type Query struct {
	ServiceName string   `json:"serviceName,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// IsEmpty reports whether the query carries no filters (full scan).
func (q Query) IsEmpty() bool {
	return q.ServiceName == "" && q.Status == "" && len(q.Tags) == 0
}

// Matches evaluates the query against a registration: equality on name and
// status, subset membership on tags. Backends that cannot push predicates
// into the store apply this client-side.
func (q Query) Matches(r *ServiceRegistration) bool {
	if q.ServiceName != "" && r.ServiceName != q.ServiceName {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	for _, tag := range q.Tags {
		if !r.HasTag(tag) {
			return false
		}
	}
	return true
}

// Discover returns the registrations matching the query, exactly as stored.
// Returned order is unspecified; staleness of lastHeartbeat is not
// interpreted here.
func (r *Registry) Discover(ctx context.Context, q Query) ([]ServiceRegistration, error) {
	return r.store.Query(ctx, q)
}
