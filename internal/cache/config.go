package cache

import "time"

const (
	// DefaultConnectAttempts is how many times Connect dials and probes
	// the backend before giving up.
	DefaultConnectAttempts = 3

	// DefaultBaseDelay is the backoff delay after the first failed
	// connection attempt.
	DefaultBaseDelay = time.Second

	// DefaultMaxJitter is the exclusive ceiling of the random jitter
	// added to each backoff delay.
	DefaultMaxJitter = 200 * time.Millisecond

	// DefaultQueryAttempts is how many times a single Get or Put is
	// tried, reconnecting in between.
	DefaultQueryAttempts = 3

	// DefaultQueryRetryDelay is the pause before reconnecting after a
	// failed query.
	DefaultQueryRetryDelay = time.Second

	// DefaultProbeTimeout bounds the connection probe query.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultReconnectCooldown is how long a failed connect cycle is
	// reported to new callers before another cycle is started.
	DefaultReconnectCooldown = 5 * time.Second
)

// Config holds the connection and retry policy of the summary cache.
type Config struct {
	// ConnectAttempts is the number of dial+probe attempts per connect.
	ConnectAttempts int

	// BaseDelay is the first backoff delay; it doubles per attempt.
	BaseDelay time.Duration

	// MaxJitter is the exclusive upper bound of the random jitter.
	MaxJitter time.Duration

	// QueryAttempts is the number of tries for a single Get or Put.
	QueryAttempts int

	// QueryRetryDelay is the pause between query attempts.
	QueryRetryDelay time.Duration

	// ProbeTimeout bounds the lightweight verification query.
	ProbeTimeout time.Duration

	// ReconnectCooldown is how long callers fail fast with the last
	// connect error. Zero starts a new cycle on the next call.
	ReconnectCooldown time.Duration
}

// DefaultConfig returns a Config with the standard retry policy.
func DefaultConfig() Config {
	return Config{
		ConnectAttempts: DefaultConnectAttempts,
		BaseDelay:       DefaultBaseDelay,
		MaxJitter:       DefaultMaxJitter,
		QueryAttempts:   DefaultQueryAttempts,
		QueryRetryDelay: DefaultQueryRetryDelay,
		ProbeTimeout:    DefaultProbeTimeout,

		ReconnectCooldown: DefaultReconnectCooldown,
	}
}

// normalize fills zero values with defaults.
func (c Config) normalize() Config {
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = DefaultConnectAttempts
	}
	if c.QueryAttempts <= 0 {
		c.QueryAttempts = DefaultQueryAttempts
	}
	if c.BaseDelay < 0 {
		c.BaseDelay = 0
	}
	if c.MaxJitter < 0 {
		c.MaxJitter = 0
	}
	if c.QueryRetryDelay < 0 {
		c.QueryRetryDelay = 0
	}
	if c.ReconnectCooldown < 0 {
		c.ReconnectCooldown = 0
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}

	return c
}
