// Package logger provides structured logging for networkable using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Libraries in this module
// default to Nop so nothing is written unless a logger is supplied.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "users-client").WithComponent("session")
//	log.Info("request sent", logger.Fields("method", "GET", "url", u))
package logger
