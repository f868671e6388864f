// Package cache implements the summary cache: a key-value store of
// generated proposal summaries keyed by proposal id, with lazy connection
// setup, probe verification and reconnect-on-failure.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/sync/singleflight"

	"github.com/roasbeef/propsum/internal/db"
	"github.com/roasbeef/propsum/internal/db/sqlc"
)

// SummaryRecord is the unit persisted into and read from the cache.
type SummaryRecord struct {
	ID          int64
	Description string
	Summary     string
	CreatedAt   time.Time
}

// Backend is a live connection to the store holding the summaries.
type Backend interface {
	GetProposalSummary(ctx context.Context,
		id int64) (sqlc.ProposalSummary, error)

	InsertProposalSummary(ctx context.Context,
		arg sqlc.InsertProposalSummaryParams) error

	ProbeProposalSummaries(ctx context.Context) ([]int64, error)

	Close() error
}

// Dialer opens a new Backend connection.
type Dialer func(ctx context.Context) (Backend, error)

// SqliteDialer returns a Dialer opening the sqlite database described by
// cfg, applying migrations on each open.
func SqliteDialer(cfg *db.SqliteConfig, log *slog.Logger) Dialer {
	return func(_ context.Context) (Backend, error) {
		store, err := db.NewSqliteStore(cfg, log)
		if err != nil {
			return nil, err
		}

		return store, nil
	}
}

// Option customizes a Cache.
type Option func(*Cache)

// WithJitter overrides the jitter source used for connection backoff.
func WithJitter(jitter JitterFunc) Option {
	return func(c *Cache) {
		c.jitter = jitter
	}
}

// WithSleep overrides how the cache waits between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Cache) {
		c.sleep = sleep
	}
}

// WithClock overrides the clock used to stamp inserted rows.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// Cache is the summary cache. It owns its backend connection: the
// connection is established lazily, verified with a probe query, and
// replaced on failure. Concurrent callers needing a connection share one
// connect cycle, and a failed cycle is reused for ReconnectCooldown so an
// outage costs each request one fast error. Cache is safe for concurrent
// use.
type Cache struct {
	cfg  Config
	dial Dialer
	log  *slog.Logger

	jitter JitterFunc
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time

	connecting singleflight.Group

	mu       sync.Mutex
	backend  Backend
	closed   bool
	lastFail *ConnectError
	failedAt time.Time
}

// New creates a cache that connects through dial on first use.
func New(cfg Config, dial Dialer, log *slog.Logger, opts ...Option) *Cache {
	if log == nil {
		log = slog.Default()
	}

	c := &Cache{
		cfg:    cfg.normalize(),
		dial:   dial,
		log:    log.With("component", "summary_cache"),
		jitter: defaultJitter,
		sleep:  sleepCtx,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Connect establishes and verifies the backend connection if none is held.
// It returns a *ConnectError once all attempts are exhausted.
func (c *Cache) Connect(ctx context.Context) error {
	_, err := c.acquire(ctx)
	return err
}

// Reconnect drops the current connection, if any, and connects again. It
// ignores the cooldown of a previous failed connect.
func (c *Cache) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.dropLocked()
	c.lastFail = nil
	c.mu.Unlock()

	_, err := c.connectShared(ctx)

	return err
}

// Ping verifies the cache is reachable, connecting if needed.
func (c *Cache) Ping(ctx context.Context) error {
	backend, err := c.acquire(ctx)
	if err != nil {
		return err
	}

	return c.probe(ctx, backend)
}

// Close releases the backend connection. The cache cannot be used
// afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.backend == nil {
		return nil
	}

	err := c.backend.Close()
	c.backend = nil

	return err
}

// Get looks up the summary for id. A miss is reported as fn.None with a nil
// error; a non-nil error means the cache could not be queried.
func (c *Cache) Get(ctx context.Context,
	id int64) (fn.Option[SummaryRecord], error) {

	var result fn.Option[SummaryRecord]
	err := c.withBackend(ctx, "get", func(b Backend) error {
		row, err := b.GetProposalSummary(ctx, id)
		switch {
		case db.IsNoRows(err):
			result = fn.None[SummaryRecord]()
			return nil

		case err != nil:
			return db.MapSQLError(err)
		}

		result = fn.Some(SummaryRecord{
			ID:          row.ID,
			Description: row.Description,
			Summary:     row.Summary,
			CreatedAt:   time.Unix(row.CreatedAt, 0),
		})

		return nil
	})
	if err != nil {
		return fn.None[SummaryRecord](), err
	}

	return result, nil
}

// Put inserts rec. Existing rows are never overwritten: a second insert for
// the same id returns ErrAlreadyCached.
func (c *Cache) Put(ctx context.Context, rec SummaryRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.now()
	}

	return c.withBackend(ctx, "put", func(b Backend) error {
		err := b.InsertProposalSummary(
			ctx, sqlc.InsertProposalSummaryParams{
				ID:          rec.ID,
				Description: rec.Description,
				Summary:     rec.Summary,
				CreatedAt:   createdAt.Unix(),
			},
		)
		if err == nil {
			return nil
		}

		err = db.MapSQLError(err)
		if db.IsUniqueConstraintViolation(err) {
			return fmt.Errorf("%w: proposal #%d", ErrAlreadyCached,
				rec.ID)
		}

		return err
	})
}

// withBackend runs op against the current backend. A failed query other
// than ErrAlreadyCached triggers a reconnect and another try, up to
// QueryAttempts in total. A failed connect is returned as is, it already
// went through its own backoff.
func (c *Cache) withBackend(ctx context.Context, opName string,
	op func(Backend) error) error {

	var lastErr error
	for attempt := 1; ; attempt++ {
		backend, err := c.acquire(ctx)
		if err != nil {
			return err
		}

		err = op(backend)
		if err == nil || !isRetryable(err) {
			return err
		}

		lastErr = err
		if attempt >= c.cfg.QueryAttempts || ctx.Err() != nil {
			break
		}

		c.log.WarnContext(ctx, "Cache query failed, reconnecting",
			"op", opName,
			"attempt", attempt,
			"max_attempts", c.cfg.QueryAttempts,
			"error", err,
		)

		if err := c.sleep(ctx, c.cfg.QueryRetryDelay); err != nil {
			return err
		}

		// Drop the broken connection so the next acquire dials a
		// fresh one.
		c.invalidate(backend)
	}

	return fmt.Errorf("cache %s failed after %d attempts: %w", opName,
		c.cfg.QueryAttempts, lastErr)
}

// acquire returns the live backend, connecting if none is held.
func (c *Cache) acquire(ctx context.Context) (Backend, error) {
	if backend, done, err := c.current(); done {
		return backend, err
	}

	return c.connectShared(ctx)
}

// current returns the live backend, ErrClosed, or the last connect failure
// while it is within the cooldown. done is false if a connect is needed.
func (c *Cache) current() (Backend, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return nil, true, ErrClosed

	case c.backend != nil:
		return c.backend, true, nil

	case c.lastFail != nil &&
		c.now().Sub(c.failedAt) < c.cfg.ReconnectCooldown:

		return nil, true, c.lastFail
	}

	return nil, false, nil
}

// connectShared runs one connect cycle on behalf of every caller waiting
// for a connection. c.mu is not held while dialing.
func (c *Cache) connectShared(ctx context.Context) (Backend, error) {
	v, err, _ := c.connecting.Do("connect", func() (any, error) {
		// A cycle that finished while we queued may have settled it.
		if backend, done, err := c.current(); done {
			if err != nil {
				return nil, err
			}

			return backend, nil
		}

		backend, err := c.connect(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()

		if err != nil {
			// A caller giving up says nothing about the backend.
			var connErr *ConnectError
			if errors.As(err, &connErr) && ctx.Err() == nil {
				c.lastFail = connErr
				c.failedAt = c.now()
			}

			return nil, err
		}

		if c.closed {
			backend.Close()
			return nil, ErrClosed
		}

		c.backend = backend
		c.lastFail = nil

		return backend, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Backend), nil
}

// invalidate drops backend if it is still the current connection, so the
// next acquire dials a fresh one. Concurrent callers that already replaced
// it are left alone.
func (c *Cache) invalidate(backend Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if backend != nil && c.backend == backend {
		c.dropLocked()
	}
}

// dropLocked closes and forgets the current backend. c.mu must be held.
func (c *Cache) dropLocked() {
	if c.backend == nil {
		return
	}

	if err := c.backend.Close(); err != nil {
		c.log.Debug("Error closing stale cache connection",
			"error", err)
	}
	c.backend = nil
}

// connect dials and probes the backend with exponential backoff.
func (c *Cache) connect(ctx context.Context) (Backend, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.ConnectAttempts; attempt++ {
		c.log.DebugContext(ctx, "Connecting to summary cache",
			"attempt", attempt,
			"max_attempts", c.cfg.ConnectAttempts,
		)

		backend, err := c.dial(ctx)
		if err == nil {
			err = c.probe(ctx, backend)
			if err != nil {
				backend.Close()
			}
		}
		if err == nil {
			c.log.InfoContext(ctx, "Summary cache connected",
				"attempt", attempt)

			return backend, nil
		}

		lastErr = err
		c.log.WarnContext(ctx, "Summary cache connection attempt failed",
			"attempt", attempt,
			"max_attempts", c.cfg.ConnectAttempts,
			"error", err,
		)

		if attempt == c.cfg.ConnectAttempts {
			break
		}

		delay := BackoffDelay(
			attempt, c.cfg.BaseDelay, c.cfg.MaxJitter, c.jitter,
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, &ConnectError{Attempts: attempt, Err: err}
		}
	}

	return nil, &ConnectError{
		Attempts: c.cfg.ConnectAttempts,
		Err:      lastErr,
	}
}

// probe runs the lightweight verification query against backend.
func (c *Cache) probe(ctx context.Context, backend Backend) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	if _, err := backend.ProbeProposalSummaries(probeCtx); err != nil {
		return fmt.Errorf("probe query: %w", db.MapSQLError(err))
	}

	return nil
}

// isRetryable reports whether a failed query is worth a reconnect.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrAlreadyCached), errors.Is(err, ErrClosed):
		return false
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}

	return true
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
