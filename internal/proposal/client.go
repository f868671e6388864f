// Package proposal fetches governance proposal descriptions from the Nouns
// subgraph over GraphQL.
package proposal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultEndpoint is the public Nouns subgraph.
	DefaultEndpoint = "https://www.nouns.camp/subgraphs/nouns"

	// DefaultTimeout bounds a single subgraph round trip.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default number of subgraph requests per
	// second.
	DefaultRateLimit = 5

	// maxErrorBody caps how much of a failed response is kept for the
	// error reason.
	maxErrorBody = 512
)

// descriptionQuery looks up the description of a single proposal.
const descriptionQuery = `query ProposalDescription($id: ID!) {
  proposal(id: $id) {
    description
  }
}`

// Record is a proposal as returned by the subgraph.
type Record struct {
	ID          int64
	Description string
}

// Config holds the subgraph client settings.
type Config struct {
	// Endpoint is the GraphQL endpoint URL.
	Endpoint string

	// Timeout bounds each request when HTTPClient is not set.
	Timeout time.Duration

	// RateLimit is the number of requests per second allowed. Zero or
	// negative disables limiting.
	RateLimit float64

	// Burst is the limiter burst size. Defaults to max(1, RateLimit).
	Burst int

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// DefaultConfig returns the client configuration for the public subgraph.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		Burst:     DefaultRateLimit,
	}
}

// Client queries the subgraph for proposal descriptions.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

// New creates a subgraph client.
func New(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.RateLimit))
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		limiter:    limiter,
		log:        log.With("component", "subgraph"),
	}
}

type graphQLRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type descriptionResponse struct {
	Data *struct {
		Proposal *struct {
			Description string `json:"description"`
		} `json:"proposal"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Fetch retrieves the description of proposal id. It returns a
// *NotFoundError when the subgraph has no such proposal and a
// *SourceUnavailableError for any transport or protocol failure. Fetch
// never retries.
func (c *Client) Fetch(ctx context.Context, id int64) (Record, error) {
	c.log.DebugContext(ctx, "Fetching proposal", "proposal_id", id)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Record{}, c.unavailable(ctx, id, 0,
				"rate limiter wait", err)
		}
	}

	body, err := json.Marshal(graphQLRequest{
		Query: descriptionQuery,
		Variables: map[string]string{
			"id": strconv.FormatInt(id, 10),
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return Record{}, c.unavailable(ctx, id, 0, "build request",
			err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, c.unavailable(ctx, id, 0, "request failed",
			err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The body stays in the log, callers only see the status.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return Record{}, c.unavailable(ctx, id, resp.StatusCode,
			fmt.Sprintf("HTTP error! status: %d", resp.StatusCode), nil,
			"body", strings.TrimSpace(string(snippet)))
	}

	var decoded descriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Record{}, c.unavailable(ctx, id, resp.StatusCode,
			"decode response", err)
	}

	if len(decoded.Errors) > 0 {
		msgs := make([]string, 0, len(decoded.Errors))
		for _, gqlErr := range decoded.Errors {
			msgs = append(msgs, gqlErr.Message)
		}

		return Record{}, c.unavailable(ctx, id, resp.StatusCode,
			"graphql: "+strings.Join(msgs, "; "), nil)
	}

	if decoded.Data == nil || decoded.Data.Proposal == nil {
		c.log.InfoContext(ctx, "Proposal does not exist",
			"proposal_id", id)

		return Record{}, &NotFoundError{ID: id}
	}

	c.log.DebugContext(ctx, "Fetched proposal",
		"proposal_id", id,
		"description_len", len(decoded.Data.Proposal.Description),
	)

	return Record{
		ID:          id,
		Description: decoded.Data.Proposal.Description,
	}, nil
}

// unavailable logs and builds a *SourceUnavailableError.
func (c *Client) unavailable(ctx context.Context, id int64, status int,
	reason string, err error, logAttrs ...any) error {

	if err != nil {
		reason = fmt.Sprintf("%s: %v", reason, err)
	}

	c.log.WarnContext(ctx, "Subgraph fetch failed", append([]any{
		"proposal_id", id,
		"status", status,
		"reason", reason,
	}, logAttrs...)...)

	return &SourceUnavailableError{
		ID:         id,
		StatusCode: status,
		Reason:     reason,
		Err:        err,
	}
}
