// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance for the command line tools and the
// review API, and integrates with the Fiber web framework.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry, so all logs related to a specific request can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console (default for the CLI) or json
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Manifest built")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Plan failed", zap.Error(err))
package logger
