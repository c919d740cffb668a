// Package validation provides input validation utilities for regkit.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// used for registration payloads; programmatic validation covers identity
// triples passed as plain arguments.
//
// # Struct Tag Validation
//
//	type ServiceRegistration struct {
//	    ServiceID   string `json:"serviceId" validate:"required"`
//	    ServiceName string `json:"serviceName" validate:"required"`
//	}
//	err := validation.Validate(reg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("service_name", name).Required("version", version)
//	err := v.Validate()
package validation
