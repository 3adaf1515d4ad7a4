package fragment

import "time"

// Config holds configuration for the fragment loader.
type Config struct {
	// Origin is the base URL fragments are resolved against.
	Origin string `mapstructure:"origin" default:"http://localhost:8080/components/"`
	// MaxAttempts is the number of requests issued per fragment before giving up.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
	// RetryDelayMS is the fixed wait between attempts, in milliseconds. Zero means the default;
	// a negative value disables the wait.
	RetryDelayMS int `mapstructure:"retry_delay_ms" default:"1000"`
	// TimeoutMS bounds each attempt, in milliseconds.
	TimeoutMS int `mapstructure:"timeout_ms" default:"5000"`
	// CacheTTLSeconds is how long fetched fragments are reused. Zero disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"60"`
	// ProbeIntervalSeconds is the connectivity probe period used while waiting for the origin.
	ProbeIntervalSeconds int `mapstructure:"probe_interval_seconds" default:"5"`
}

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1000 * time.Millisecond
	DefaultTimeout     = 5000 * time.Millisecond
)

// NoDelay is a Policy.Delay that retries without waiting.
const NoDelay time.Duration = -1

// Policy is the retry policy applied to every fragment of a cycle.
// Zero fields take the DefaultPolicy values.
type Policy struct {
	MaxAttempts int
	// Delay is the wait between attempts. Any negative value, such as NoDelay, means none.
	Delay   time.Duration
	Timeout time.Duration
}

// DefaultPolicy returns 3 attempts, 1s apart, 5s each.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
		Timeout:     DefaultTimeout,
	}
}

// Policy converts the configured knobs, falling back to defaults for unset values.
func (c Config) Policy() Policy {
	p := Policy{
		MaxAttempts: c.MaxAttempts,
		Delay:       time.Duration(c.RetryDelayMS) * time.Millisecond,
		Timeout:     time.Duration(c.TimeoutMS) * time.Millisecond,
	}
	return p.withDefaults()
}

// CacheTTL returns the fragment cache lifetime.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ProbeInterval returns the connectivity probe period, defaulting to 5s.
func (c Config) ProbeInterval() time.Duration {
	if c.ProbeIntervalSeconds <= 0 {
		return DefaultProbeInterval
	}
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Delay == 0 {
		p.Delay = def.Delay
	}
	if p.Timeout <= 0 {
		p.Timeout = def.Timeout
	}
	return p
}

// wait is the effective pause between attempts.
func (p Policy) wait() time.Duration {
	if p.Delay < 0 {
		return 0
	}
	return p.Delay
}
