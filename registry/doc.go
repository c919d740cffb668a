// Package registry provides service registration and discovery for regkit
// applications.
//
// A registration describes one running instance of one version of a named
// service, keyed by the identity triple (serviceName, version, serviceId).
// Instances register themselves with their reachable endpoints, report
// health via heartbeats, and are looked up dynamically by name, status,
// or tags.
//
// # Architecture
//
//   - Store: minimal put/get/query/delete contract over a durable backend
//   - Registry: registration protocol (register, heartbeat, unregister)
//   - Client: facade adding discovery, endpoint resolution, and selection
//     strategies (round-robin, random, first)
//   - Component: lifecycle wrapper with config-driven store selection and
//     optional self-registration
//
// # Backends
//
//   - registry/memory: in-memory store for development and testing
//   - registry/redis: Redis-backed store (JSON documents, SCAN queries)
//   - registry/consul: Consul KV-backed store
//   - registry/gorm: relational store on GORM (sqlite, postgres, ...)
//
// The registry holds no mutable in-process state beyond the injected store
// handle; all durable state lives in the backend, so the registry itself is
// stateless and safe for concurrent use.
package registry
