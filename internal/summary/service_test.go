package summary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"

	"github.com/roasbeef/propsum/internal/cache"
	"github.com/roasbeef/propsum/internal/db"
	"github.com/roasbeef/propsum/internal/proposal"
	"github.com/roasbeef/propsum/internal/summarizer"
)

// mockCache is an in-memory Cache with scriptable failures.
type mockCache struct {
	mu      sync.Mutex
	records map[int64]cache.SummaryRecord
	getErr  error
	putErr  error
	gets    int
	puts    int
}

func newMockCache() *mockCache {
	return &mockCache{records: make(map[int64]cache.SummaryRecord)}
}

func (m *mockCache) Get(
	_ context.Context, id int64,
) (fn.Option[cache.SummaryRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	if m.getErr != nil {
		return fn.None[cache.SummaryRecord](), m.getErr
	}

	rec, ok := m.records[id]
	if !ok {
		return fn.None[cache.SummaryRecord](), nil
	}

	return fn.Some(rec), nil
}

func (m *mockCache) Put(_ context.Context, rec cache.SummaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	if _, ok := m.records[rec.ID]; ok {
		return cache.ErrAlreadyCached
	}
	m.records[rec.ID] = rec

	return nil
}

func (m *mockCache) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.puts
}

// mockSource serves descriptions from a map.
type mockSource struct {
	descriptions map[int64]string
	err          error
	calls        atomic.Int32
}

func (m *mockSource) Fetch(
	_ context.Context, id int64,
) (proposal.Record, error) {
	m.calls.Add(1)

	if m.err != nil {
		return proposal.Record{}, m.err
	}

	desc, ok := m.descriptions[id]
	if !ok {
		return proposal.Record{}, &proposal.NotFoundError{ID: id}
	}

	return proposal.Record{ID: id, Description: desc}, nil
}

// mockSummarizer returns a canned summary, optionally blocking until
// release is closed.
type mockSummarizer struct {
	summary string
	err     error
	panics  bool
	release chan struct{}
	calls   atomic.Int32
}

func (m *mockSummarizer) Summarize(
	ctx context.Context, text string,
) (string, error) {
	m.calls.Add(1)

	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.panics {
		panic("summarizer exploded")
	}
	if m.err != nil {
		return "", m.err
	}
	if m.summary != "" {
		return m.summary, nil
	}

	return "summary of " + text, nil
}

type harness struct {
	svc    *Service
	cache  *mockCache
	source *mockSource
	sum    *mockSummarizer
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()

	h := &harness{
		cache: newMockCache(),
		source: &mockSource{descriptions: map[int64]string{
			1:  "Fund bridge repair",
			42: "Sponsor a hackathon",
		}},
		sum: &mockSummarizer{},
	}
	h.svc = NewService(cfg, h.cache, h.source, h.sum, nil)

	return h
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()

	var sErr *Error
	require.ErrorAs(t, err, &sErr)
	require.Equal(t, kind, sErr.Kind, "unexpected kind: %v", err)

	return sErr
}

func TestCacheHitShortCircuits(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.cache.records[7] = cache.SummaryRecord{
		ID: 7, Description: "cached desc", Summary: "cached summary",
	}

	env, err := h.svc.GetSummary(context.Background(), "7")
	require.NoError(t, err)
	require.Equal(t, &Envelope{
		ID:          7,
		Description: "cached desc",
		Summary:     "cached summary",
		Cached:      true,
	}, env)

	require.Zero(t, h.source.calls.Load())
	require.Zero(t, h.sum.calls.Load())
	require.Zero(t, h.cache.putCount())
}

func TestMissThenHit(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	ctx := context.Background()

	first, err := h.svc.GetSummary(ctx, "42")
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Equal(t, "Sponsor a hackathon", first.Description)
	require.Equal(t, "summary of Sponsor a hackathon", first.Summary)

	second, err := h.svc.GetSummary(ctx, "42")
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Description, second.Description)
	require.Equal(t, first.Summary, second.Summary)

	require.EqualValues(t, 1, h.source.calls.Load())
	require.EqualValues(t, 1, h.sum.calls.Load())

	stats := h.svc.Stats()
	require.EqualValues(t, 2, stats.Requests)
	require.EqualValues(t, 1, stats.CacheHits)
	require.EqualValues(t, 1, stats.CacheMisses)
}

func TestInvalidIDRejectedWithoutExternalCalls(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	for _, raw := range []string{"abc", "-1", "", "1.5", " 3", "0x10",
		"99999999999999999999"} {

		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			_, err := h.svc.GetSummary(context.Background(), raw)

			sErr := requireKind(t, err, KindInvalidInput)
			require.Equal(t, http.StatusBadRequest,
				sErr.Kind.HTTPStatus())
			require.Equal(t, "Invalid proposal ID. Please provide "+
				"a valid positive number.", sErr.Error())
		})
	}

	require.Zero(t, h.cache.gets)
	require.Zero(t, h.source.calls.Load())
	require.Zero(t, h.sum.calls.Load())
}

func TestNotFoundSkipsSummarizer(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	_, err := h.svc.GetSummary(context.Background(), "99999")

	sErr := requireKind(t, err, KindNotFound)
	require.Equal(t, http.StatusNotFound, sErr.Kind.HTTPStatus())
	require.Equal(t, "Proposal #99999 does not exist. Please check the "+
		"proposal ID and try again.", sErr.Error())

	require.Zero(t, h.sum.calls.Load())
	require.Zero(t, h.cache.putCount())
}

func TestSourceUnavailable(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.source.err = &proposal.SourceUnavailableError{
		ID: 5, StatusCode: 502, Reason: "HTTP error! status: 502",
	}

	_, err := h.svc.GetSummary(context.Background(), "5")

	sErr := requireKind(t, err, KindSourceUnavailable)
	require.Equal(t, http.StatusInternalServerError,
		sErr.Kind.HTTPStatus())
	require.Equal(t, "HTTP error! status: 502", sErr.Error())
	require.Zero(t, h.sum.calls.Load())
}

// emptyErr is an error with no message.
type emptyErr struct{}

func (emptyErr) Error() string { return "" }

func TestSourceUnavailableDefaultMessage(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.source.err = emptyErr{}

	_, err := h.svc.GetSummary(context.Background(), "5")

	sErr := requireKind(t, err, KindSourceUnavailable)
	require.Equal(t, "Unable to process proposal #5. Please try again "+
		"later.", sErr.Error())
}

func TestUnreachableCacheStillSucceeds(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.cache.getErr = &cache.ConnectError{
		Attempts: 3, Err: errors.New("connection refused"),
	}
	h.cache.putErr = errors.New("connection refused")

	env, err := h.svc.GetSummary(context.Background(), "1")
	require.NoError(t, err)
	require.False(t, env.Cached)
	require.Equal(t, "Fund bridge repair", env.Description)

	stats := h.svc.Stats()
	require.EqualValues(t, 1, stats.CacheErrors)
	require.EqualValues(t, 1, stats.PersistFailures)
}

func TestFailedWriteStillReturnsEnvelope(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.cache.putErr = errors.New("disk full")

	env, err := h.svc.GetSummary(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, &Envelope{
		ID:          1,
		Description: "Fund bridge repair",
		Summary:     "summary of Fund bridge repair",
		Cached:      false,
	}, env)
	require.Equal(t, 1, h.cache.putCount())
}

func TestSummarizationFailed(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.sum.err = &summarizer.Error{Err: errors.New("rate limited")}

	_, err := h.svc.GetSummary(context.Background(), "1")

	sErr := requireKind(t, err, KindSummarizationFailed)
	require.Equal(t, http.StatusInternalServerError,
		sErr.Kind.HTTPStatus())
	require.Equal(t, "failed to generate summary: rate limited",
		sErr.Error())
	require.Zero(t, h.cache.putCount())
}

func TestFallbackSummaryIsSuccess(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.sum.summary = summarizer.FallbackSummary

	env, err := h.svc.GetSummary(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, summarizer.FallbackSummary, env.Summary)
	require.Equal(t, 1, h.cache.putCount())
}

func TestPanicRecoveredAsUnhandled(t *testing.T) {
	for _, dedupe := range []bool{true, false} {
		t.Run(fmt.Sprintf("dedupe=%v", dedupe), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DedupeInFlight = dedupe

			h := newHarness(t, cfg)
			h.sum.panics = true

			_, err := h.svc.GetSummary(context.Background(), "1")

			sErr := requireKind(t, err, KindUnhandled)
			require.Equal(t, "An unexpected error occurred. "+
				"Please try again later.", sErr.Error())
			require.Contains(t, sErr.Details(),
				"summarizer exploded")
		})
	}
}

func TestInFlightDedupe(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.sum.release = make(chan struct{})

	const callers = 8

	var (
		wg   sync.WaitGroup
		envs = make([]*Envelope, callers)
		errs = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			envs[i], errs[i] = h.svc.GetSummary(
				context.Background(), "1",
			)
		}(i)
	}

	// Wait for the leader to reach the summarizer, then give the rest
	// time to join the flight before releasing it.
	require.Eventually(t, func() bool {
		return h.sum.calls.Load() == 1
	}, 5*time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(h.sum.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "Fund bridge repair", envs[i].Description)
	}

	// Late joiners may have started a second flight that hit the
	// cache, but the summarizer runs exactly once.
	require.EqualValues(t, 1, h.sum.calls.Load())
	require.Equal(t, 1, h.cache.putCount())

	// Each caller owns its envelope.
	envs[0].Summary = "mutated"
	require.NotEqual(t, "mutated", envs[1].Summary)
}

func TestPipelineSurvivesCallerCancel(t *testing.T) {
	for _, dedupe := range []bool{true, false} {
		t.Run(fmt.Sprintf("dedupe=%v", dedupe), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DedupeInFlight = dedupe

			h := newHarness(t, cfg)
			h.sum.release = make(chan struct{})

			ctx, cancel := context.WithCancel(context.Background())

			done := make(chan error, 1)
			go func() {
				_, err := h.svc.GetSummary(ctx, "1")
				done <- err
			}()

			require.Eventually(t, func() bool {
				return h.sum.calls.Load() == 1
			}, 5*time.Second, time.Millisecond)

			cancel()
			close(h.sum.release)

			require.NoError(t, <-done)
			require.Equal(t, 1, h.cache.putCount())
		})
	}
}

func TestMaxConcurrentBoundsSummarizer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DedupeInFlight = false
	cfg.MaxConcurrent = 1

	h := newHarness(t, cfg)
	h.sum.release = make(chan struct{})

	var wg sync.WaitGroup
	for _, id := range []string{"1", "42"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := h.svc.GetSummary(context.Background(), id)
			require.NoError(t, err)
		}(id)
	}

	require.Eventually(t, func() bool {
		return h.sum.calls.Load() == 1
	}, 5*time.Second, time.Millisecond)

	// The second request is parked on the semaphore.
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, h.sum.calls.Load())

	close(h.sum.release)
	wg.Wait()
	require.EqualValues(t, 2, h.sum.calls.Load())
}

// TestFundBridgeRepairScenario runs the pipeline against a real sqlite
// backed cache: the first request summarizes and stores, the second is
// served from the cache.
func TestFundBridgeRepairScenario(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "propsum.db")
	c := cache.New(cache.DefaultConfig(), cache.SqliteDialer(
		&db.SqliteConfig{DatabaseFileName: dbPath}, nil,
	), nil)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	source := &mockSource{descriptions: map[int64]string{
		7: "Fund bridge repair",
	}}
	sum := &mockSummarizer{summary: "**TL;DR 📌** Repair the bridge."}
	svc := NewService(DefaultConfig(), c, source, sum, nil)

	ctx := context.Background()

	first, err := svc.GetSummary(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, &Envelope{
		ID:          7,
		Description: "Fund bridge repair",
		Summary:     "**TL;DR 📌** Repair the bridge.",
		Cached:      false,
	}, first)

	second, err := svc.GetSummary(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, &Envelope{
		ID:          7,
		Description: "Fund bridge repair",
		Summary:     "**TL;DR 📌** Repair the bridge.",
		Cached:      true,
	}, second)

	require.EqualValues(t, 1, source.calls.Load())
	require.EqualValues(t, 1, sum.calls.Load())
}
