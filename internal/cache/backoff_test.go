package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBackoffDelay(t *testing.T) {
	zeroJitter := func(int64) int64 { return 0 }

	tests := []struct {
		name    string
		attempt int
		base    time.Duration
		ceiling time.Duration
		jitter  JitterFunc
		want    time.Duration
	}{
		{
			name:    "first attempt is the base delay",
			attempt: 1,
			base:    time.Second,
			ceiling: 200 * time.Millisecond,
			jitter:  zeroJitter,
			want:    time.Second,
		},
		{
			name:    "doubles per attempt",
			attempt: 3,
			base:    time.Second,
			ceiling: 200 * time.Millisecond,
			jitter:  zeroJitter,
			want:    4 * time.Second,
		},
		{
			name:    "jitter is added",
			attempt: 2,
			base:    time.Second,
			ceiling: 200 * time.Millisecond,
			jitter:  func(n int64) int64 { return n - 1 },
			want:    2*time.Second + 200*time.Millisecond - 1,
		},
		{
			name:    "nil jitter",
			attempt: 2,
			base:    100 * time.Millisecond,
			ceiling: time.Second,
			want:    200 * time.Millisecond,
		},
		{
			name:    "attempt below one is treated as one",
			attempt: 0,
			base:    time.Second,
			jitter:  zeroJitter,
			want:    time.Second,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := BackoffDelay(tc.attempt, tc.base, tc.ceiling, tc.jitter)
			require.Equal(t, tc.want, got)
		})
	}
}

// TestBackoffDelayBounds checks that every delay lies in
// [base*2^(n-1), base*2^(n-1)+ceiling) for the real jitter source.
func TestBackoffDelayBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attempt := rapid.IntRange(1, 10).Draw(t, "attempt")
		base := time.Duration(
			rapid.Int64Range(0, int64(2*time.Second)).Draw(t, "base"),
		)
		ceiling := time.Duration(
			rapid.Int64Range(1, int64(time.Second)).Draw(t, "ceiling"),
		)

		got := BackoffDelay(attempt, base, ceiling, defaultJitter)

		floor := base << (attempt - 1)
		if got < floor || got >= floor+ceiling {
			t.Fatalf("delay %v outside [%v, %v)", got, floor,
				floor+ceiling)
		}
	})
}

// TestBackoffDelayMonotonic checks that without jitter the delay never
// shrinks as the attempt number grows.
func TestBackoffDelayMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Duration(
			rapid.Int64Range(1, int64(time.Second)).Draw(t, "base"),
		)
		attempt := rapid.IntRange(1, 20).Draw(t, "attempt")

		cur := BackoffDelay(attempt, base, 0, nil)
		next := BackoffDelay(attempt+1, base, 0, nil)
		if next != 2*cur {
			t.Fatalf("attempt %d: next delay %v, want %v",
				attempt, next, 2*cur)
		}
	})
}
