// Package logger provides structured logging for regkit applications
// using zerolog.
//
// It supports JSON and console output formats, log level configuration,
// and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("registry").WithComponent("store")
//	log.Info("registration stored", logger.Fields("service_name", "billing"))
package logger
