// Package config provides configuration management for the site server.
//
// It utilizes Viper for loading configuration from environment variables and an optional
// .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: HTTP port, admin API key, public URL
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Loader: fragment origin, retry attempts, retry delay, per-attempt timeout, cache TTL
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	policy := cfg.Loader.Policy()
package config
