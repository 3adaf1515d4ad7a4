// Package server holds the HTTP server configuration.
//
// The start command owns the Fiber app lifecycle; this package only defines the settings
// it reads: the listen port, the admin API key protecting the integrity endpoints and the
// public base URL of the site.
package server
