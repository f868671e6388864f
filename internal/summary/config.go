package summary

const (
	// DefaultMaxConcurrent is the max simultaneous summarizer calls.
	DefaultMaxConcurrent = 4
)

// Config holds configuration for the summary service.
type Config struct {
	// DedupeInFlight collapses concurrent requests for the same
	// proposal into a single pipeline run. Every waiter receives the
	// leader's envelope.
	DedupeInFlight bool

	// MaxConcurrent is the max simultaneous summarizer calls. Zero or
	// negative means unlimited.
	MaxConcurrent int

	// Development adds error details to unhandled failures.
	Development bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DedupeInFlight: true,
		MaxConcurrent:  DefaultMaxConcurrent,
	}
}
