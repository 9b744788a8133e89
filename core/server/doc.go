// Package server holds the review HTTP server configuration.
//
// The review server exposes a reconciliation plan read-only over HTTP. The
// Config struct defines the port, the API key and the two manifest
// references the plan is computed from.
//
// # Usage
//
// This package is used by core/config to embed server settings and by the
// serve command, which validates it before starting.
package server
