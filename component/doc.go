// Package component defines the lifecycle contract for regkit infrastructure
// components (registry store backends, observability, servers) and a registry
// that starts them in order and stops them in reverse order.
package component
