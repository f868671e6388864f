package cache

import (
	"math/rand/v2"
	"time"
)

// maxBackoffShift bounds the exponent so the doubling cannot overflow a
// time.Duration.
const maxBackoffShift = 32

// JitterFunc returns a pseudo-random value in [0, n). n is always > 0.
type JitterFunc func(n int64) int64

// defaultJitter draws jitter from the global math/rand/v2 source.
func defaultJitter(n int64) int64 {
	return rand.Int64N(n) //nolint:gosec
}

// BackoffDelay returns how long to wait after the given failed connection
// attempt (1-based): base * 2^(attempt-1) plus a random jitter in
// [0, jitterCeiling). A nil jitter function or non-positive ceiling yields
// no jitter.
func BackoffDelay(attempt int, base, jitterCeiling time.Duration,
	jitter JitterFunc) time.Duration {

	if attempt < 1 {
		attempt = 1
	}

	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}

	delay := base << shift

	if jitterCeiling > 0 && jitter != nil {
		delay += time.Duration(jitter(int64(jitterCeiling)))
	}

	return delay
}
