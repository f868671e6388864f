package summary

import (
	"strconv"

	"github.com/roasbeef/propsum/internal/cache"
)

// ProposalID identifies a governance proposal. Valid ids are non-negative.
type ProposalID int64

// String returns the decimal form of the id.
func (p ProposalID) String() string {
	return strconv.FormatInt(int64(p), 10)
}

// ParseProposalID parses a base-10 proposal id. Anything that is not an
// integer in [0, MaxInt64] is rejected with a KindInvalidInput error.
func ParseProposalID(raw string) (ProposalID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, &Error{
			Kind: KindInvalidInput,
			ID:   -1,
			Msg:  msgInvalidID,
			Err:  err,
		}
	}

	return ProposalID(id), nil
}

// Envelope is the response for one summary request.
type Envelope struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Summary     string `json:"summary"`

	// Cached is true iff the tuple was read from the summary cache
	// without invoking the summarizer.
	Cached bool `json:"cached"`
}

func envelopeFromRecord(rec cache.SummaryRecord, cached bool) *Envelope {
	return &Envelope{
		ID:          rec.ID,
		Description: rec.Description,
		Summary:     rec.Summary,
		Cached:      cached,
	}
}

// Stats is a snapshot of the service counters.
type Stats struct {
	Requests        uint64 `json:"requests"`
	CacheHits       uint64 `json:"cache_hits"`
	CacheMisses     uint64 `json:"cache_misses"`
	CacheErrors     uint64 `json:"cache_errors"`
	PersistFailures uint64 `json:"persist_failures"`
	Shared          uint64 `json:"shared"`
}
