package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"rebelinux-site/core/fragment"
	"rebelinux-site/core/logger"
	"rebelinux-site/core/server"
	"rebelinux-site/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage holding pages and fragments.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Loader holds the fragment loader's origin and retry policy.
	Loader fragment.Config `mapstructure:"loader"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is fine (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. LOADER_MAX_ATTEMPTS -> loader.max_attempts)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate reports every setting that would make the server or the loader unusable.
func (c *Config) Validate() error {
	var errs error

	if port, err := strconv.Atoi(strings.TrimPrefix(c.Server.Port, ":")); err != nil || port <= 0 || port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("server.port: invalid port %q", c.Server.Port))
	}
	if c.Storage.Bucket == "" {
		errs = multierr.Append(errs, fmt.Errorf("storage.bucket: must not be empty"))
	}
	if u, err := url.Parse(c.Loader.Origin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = multierr.Append(errs, fmt.Errorf("loader.origin: %q is not an absolute URL", c.Loader.Origin))
	}
	if c.Loader.MaxAttempts < 0 {
		errs = multierr.Append(errs, fmt.Errorf("loader.max_attempts: must not be negative"))
	}
	if c.Loader.TimeoutMS < 0 {
		errs = multierr.Append(errs, fmt.Errorf("loader.timeout_ms: must not be negative"))
	}

	return errs
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
