// Package summary orchestrates proposal summary requests: cache lookup,
// subgraph fetch, summarization and best-effort cache write.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"golang.org/x/sync/singleflight"

	"github.com/roasbeef/propsum/internal/cache"
	"github.com/roasbeef/propsum/internal/proposal"
	"github.com/roasbeef/propsum/internal/summarizer"
)

// Cache is the summary cache as seen by the service.
type Cache interface {
	// Get returns fn.None on a miss. A non-nil error means the cache
	// could not be consulted.
	Get(ctx context.Context, id int64) (fn.Option[cache.SummaryRecord],
		error)

	// Put inserts a record. Existing records are never overwritten.
	Put(ctx context.Context, rec cache.SummaryRecord) error
}

// Source fetches proposal descriptions.
type Source interface {
	Fetch(ctx context.Context, id int64) (proposal.Record, error)
}

// Service handles summary requests.
type Service struct {
	cfg        Config
	cache      Cache
	source     Source
	summarizer summarizer.Summarizer
	log        *slog.Logger

	flight singleflight.Group

	// sem limits concurrent summarizer calls. Nil means unlimited.
	sem chan struct{}

	requests        atomic.Uint64
	cacheHits       atomic.Uint64
	cacheMisses     atomic.Uint64
	cacheErrors     atomic.Uint64
	persistFailures atomic.Uint64
	shared          atomic.Uint64
}

// NewService creates a new summary service.
func NewService(
	cfg Config, c Cache, source Source, sum summarizer.Summarizer,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}

	var sem chan struct{}
	if cfg.MaxConcurrent > 0 {
		sem = make(chan struct{}, cfg.MaxConcurrent)
	}

	return &Service{
		cfg:        cfg,
		cache:      c,
		source:     source,
		summarizer: sum,
		log:        log.With("component", "summary"),
		sem:        sem,
	}
}

// GetSummary validates rawID and returns the summary envelope for it.
// Failures are returned as *Error.
func (s *Service) GetSummary(
	ctx context.Context, rawID string,
) (*Envelope, error) {
	id, err := ParseProposalID(rawID)
	if err != nil {
		s.log.InfoContext(ctx, "Invalid proposal ID provided",
			"raw_id", rawID,
		)
		return nil, err
	}

	return s.Summarize(ctx, id)
}

// Summarize returns the summary envelope for id, serving it from the cache
// when possible. Failures are returned as *Error.
func (s *Service) Summarize(
	ctx context.Context, id ProposalID,
) (*Envelope, error) {
	start := time.Now()
	s.requests.Add(1)

	s.log.InfoContext(ctx, "Received summary request", "proposal_id", id)

	var (
		env *Envelope
		err error
	)
	if s.cfg.DedupeInFlight {
		env, err = s.summarizeShared(ctx, id)
	} else {
		// Once submitted the pipeline runs to completion even if the
		// caller goes away.
		env, err = s.run(context.WithoutCancel(ctx), id)
	}

	attrs := []any{
		"proposal_id", id,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "kind", AsError(err).Kind.String())
	} else {
		attrs = append(attrs, "cached", env.Cached)
	}
	s.log.InfoContext(ctx, "Summary request completed", attrs...)

	return env, err
}

// summarizeShared runs the pipeline at most once per id at a time. The
// shared run is detached from the caller's cancellation so one caller
// giving up does not fail the others.
func (s *Service) summarizeShared(
	ctx context.Context, id ProposalID,
) (*Envelope, error) {
	v, err, shared := s.flight.Do(id.String(), func() (any, error) {
		return s.run(context.WithoutCancel(ctx), id)
	})
	if shared {
		s.shared.Add(1)
	}
	if err != nil {
		return nil, err
	}

	// Waiters share the leader's value, hand each its own copy.
	env := *v.(*Envelope)

	return &env, nil
}

// run is the request pipeline proper. Panics are recovered into
// KindUnhandled.
func (s *Service) run(
	ctx context.Context, id ProposalID,
) (env *Envelope, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "Unhandled error in summary "+
				"pipeline", "proposal_id", id, "panic", r)

			env, err = nil, unhandled(int64(id), r)
		}
	}()

	// Cache lookup. Any cache failure is treated as a miss.
	s.log.DebugContext(ctx, "Checking cache", "proposal_id", id)

	hit, cacheErr := s.cache.Get(ctx, int64(id))
	switch {
	case cacheErr != nil:
		s.cacheErrors.Add(1)
		s.log.WarnContext(ctx, "Cache check failed, continuing "+
			"without cache", "proposal_id", id, "error", cacheErr)

	case hit.IsSome():
		s.cacheHits.Add(1)
		s.log.InfoContext(ctx, "Cache hit", "proposal_id", id)

		return envelopeFromRecord(
			hit.UnwrapOr(cache.SummaryRecord{}), true,
		), nil

	default:
		s.cacheMisses.Add(1)
	}

	s.log.InfoContext(ctx, "Cache miss, fetching from subgraph",
		"proposal_id", id)

	rec, err := s.source.Fetch(ctx, int64(id))
	if err != nil {
		return nil, s.classifyFetchError(ctx, id, err)
	}

	summaryText, err := s.generate(ctx, id, rec.Description)
	if err != nil {
		return nil, err
	}

	record := cache.SummaryRecord{
		ID:          int64(id),
		Description: rec.Description,
		Summary:     summaryText,
	}

	// The write outcome is only observed, the response never depends
	// on it.
	s.persist(ctx, record).WhenErr(func(err error) {
		if errors.Is(err, cache.ErrAlreadyCached) {
			s.log.InfoContext(ctx, "Summary already cached, "+
				"keeping first write", "proposal_id", id)
			return
		}

		s.persistFailures.Add(1)
		s.log.WarnContext(ctx, "Failed to store summary in cache",
			"proposal_id", id, "error", err)
	})

	return envelopeFromRecord(record, false), nil
}

// generate calls the summarizer, bounded by the concurrency semaphore.
func (s *Service) generate(
	ctx context.Context, id ProposalID, description string,
) (string, error) {
	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()

		case <-ctx.Done():
			return "", &Error{
				Kind: KindSummarizationFailed,
				ID:   int64(id),
				Msg: "failed to generate summary: " +
					ctx.Err().Error(),
				Err: ctx.Err(),
			}
		}
	}

	s.log.InfoContext(ctx, "Generating summary", "proposal_id", id)

	text, err := s.summarizer.Summarize(ctx, description)
	if err != nil {
		msg := err.Error()

		var sumErr *summarizer.Error
		if !errors.As(err, &sumErr) {
			msg = (&summarizer.Error{Err: err}).Error()
		}

		return "", &Error{
			Kind: KindSummarizationFailed,
			ID:   int64(id),
			Msg:  msg,
			Err:  err,
		}
	}

	s.log.DebugContext(ctx, "Generated summary",
		"proposal_id", id, "summary_len", len(text))

	return text, nil
}

// persist writes rec to the cache on a context that outlives the caller.
func (s *Service) persist(
	ctx context.Context, rec cache.SummaryRecord,
) fn.Result[cache.SummaryRecord] {
	s.log.DebugContext(ctx, "Storing summary in cache",
		"proposal_id", rec.ID)

	if err := s.cache.Put(context.WithoutCancel(ctx), rec); err != nil {
		return fn.Err[cache.SummaryRecord](err)
	}

	s.log.DebugContext(ctx, "Stored summary in cache",
		"proposal_id", rec.ID)

	return fn.Ok(rec)
}

// classifyFetchError maps a source failure onto the request taxonomy.
func (s *Service) classifyFetchError(
	ctx context.Context, id ProposalID, err error,
) error {
	s.log.WarnContext(ctx, "Error fetching proposal",
		"proposal_id", id, "error", err)

	var notFound *proposal.NotFoundError
	if errors.As(err, &notFound) {
		return &Error{
			Kind: KindNotFound,
			ID:   int64(id),
			Msg:  fmt.Sprintf(msgNotFound, id),
			Err:  err,
		}
	}

	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = fmt.Sprintf(msgProcessing, id)
	}

	return &Error{
		Kind: KindSourceUnavailable,
		ID:   int64(id),
		Msg:  msg,
		Err:  err,
	}
}

// Stats returns a snapshot of the service counters.
func (s *Service) Stats() Stats {
	return Stats{
		Requests:        s.requests.Load(),
		CacheHits:       s.cacheHits.Load(),
		CacheMisses:     s.cacheMisses.Load(),
		CacheErrors:     s.cacheErrors.Load(),
		PersistFailures: s.persistFailures.Load(),
		Shared:          s.shared.Load(),
	}
}

// Development reports whether error details may be exposed to clients.
func (s *Service) Development() bool {
	return s.cfg.Development
}
