package server

import (
	"strings"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the admin API. Empty disables the check.
	ApiKey string `mapstructure:"api_key" default:""`
	// PublicURL is the externally visible base URL of the site, used for retry links.
	PublicURL string `mapstructure:"public_url" default:"http://localhost:8080"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// IsProtected reports whether the admin API requires a key.
func (c Config) IsProtected() bool {
	return c.ApiKey != ""
}
