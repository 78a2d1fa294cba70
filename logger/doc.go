// Package logger provides structured logging for firekit using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("rtdb")
//	log.Info("stream connected", logger.Fields(logger.FieldPath, "/rooms"))
package logger
