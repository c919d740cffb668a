package registry

import (
	"context"
	"time"

	"github.com/sngor/regkit/errors"
	"github.com/sngor/regkit/logger"
	"github.com/sngor/regkit/validation"
)

// Registry owns the registration protocol: compute identity, upsert,
// heartbeat, unregister, and point lookup. It holds no state beyond the
// injected store handle and is safe for concurrent use.
type Registry struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

// NewRegistry creates a Registry over the given store.
func NewRegistry(store Store, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		store: store,
		log:   log.WithComponent("registry"),
		now:   time.Now,
	}
}

// Store returns the underlying store handle.
func (r *Registry) Store() Store { return r.store }

// Register validates and upserts a registration. Re-registering the same
// identity triple replaces endpoints, metadata, status, and tags, but the
// original registeredAt survives: first write wins. lastHeartbeat is
// refreshed on every call.
func (r *Registry) Register(ctx context.Context, reg *ServiceRegistration) error {
	if reg == nil {
		return errors.Validation("registration must not be nil")
	}

	stored := reg.Clone()
	stored.Normalize()
	if err := stored.Validate(); err != nil {
		return err
	}

	now := r.now().UTC()
	existing, err := r.store.Get(ctx, stored.ServiceName, stored.Version, stored.ServiceID)
	if err != nil {
		return err
	}
	if existing != nil {
		stored.RegisteredAt = existing.RegisteredAt
	} else {
		stored.RegisteredAt = now
	}
	stored.LastHeartbeat = now

	if err := r.store.Put(ctx, stored); err != nil {
		return err
	}

	r.log.Info("service registered", logger.IdentityFields(stored.ServiceName, stored.Version, stored.ServiceID))
	return nil
}

// Unregister removes the registration for the identity triple. Removing an
// absent registration is not an error.
func (r *Registry) Unregister(ctx context.Context, serviceName, version, serviceID string) error {
	if err := validateIdentity(serviceName, version, serviceID); err != nil {
		return err
	}

	if err := r.store.Delete(ctx, serviceName, version, serviceID); err != nil {
		return err
	}

	r.log.Info("service unregistered", logger.IdentityFields(serviceName, version, serviceID))
	return nil
}

// GetService returns the registration for the identity triple, or
// (nil, nil) when none exists. Absence is a normal outcome, not an error.
func (r *Registry) GetService(ctx context.Context, serviceName, version, serviceID string) (*ServiceRegistration, error) {
	if err := validateIdentity(serviceName, version, serviceID); err != nil {
		return nil, err
	}
	return r.store.Get(ctx, serviceName, version, serviceID)
}

// UpdateHeartbeat records a liveness report against an existing
// registration: status is set to the supplied value and lastHeartbeat to
// now; every other field is unchanged. A heartbeat never creates a
// registration; an unknown identity fails with NOT_REGISTERED.
func (r *Registry) UpdateHeartbeat(ctx context.Context, serviceName, version, serviceID string, status Status) error {
	v := validation.New().
		Required("service_name", serviceName).
		Required("version", version).
		Required("service_id", serviceID).
		OneOf("status", string(status), []string{string(StatusHealthy), string(StatusUnhealthy), string(StatusUnknown)}).
		Required("status", string(status))
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	existing, err := r.store.Get(ctx, serviceName, version, serviceID)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.NotRegistered(serviceName, version, serviceID)
	}

	existing.Status = status
	existing.LastHeartbeat = r.now().UTC()

	if err := r.store.Put(ctx, existing); err != nil {
		return err
	}

	r.log.Debug("heartbeat recorded", logger.Fields(
		logger.FieldServiceName, serviceName,
		logger.FieldServiceID, serviceID,
		logger.FieldStatus, string(status),
	))
	return nil
}

func validateIdentity(serviceName, version, serviceID string) error {
	v := validation.New().
		Required("service_name", serviceName).
		Required("version", version).
		Required("service_id", serviceID)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
