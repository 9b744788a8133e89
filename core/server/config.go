package server

import "errors"

// Config holds configuration for the review HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Source is the manifest reference describing the desired layout.
	Source string `mapstructure:"source" default:""`
	// Destination is the manifest reference describing the tree to fix.
	// Empty compares the source against itself.
	Destination string `mapstructure:"destination" default:""`
}

// Validate checks that the server can plan something.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("server port is required")
	}
	if c.Source == "" {
		return errors.New("server source manifest is required")
	}
	return nil
}
