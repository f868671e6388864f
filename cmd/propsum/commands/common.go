package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/roasbeef/propsum/internal/config"
	"github.com/roasbeef/propsum/internal/db"
	"github.com/roasbeef/propsum/internal/summary"
	"github.com/roasbeef/propsum/internal/web"
)

// requestTimeout bounds a single call to the daemon. Summarization of a
// long proposal can take a while.
const requestTimeout = 2 * time.Minute

// markdown renders summaries for --format html.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// getDBPath returns the configured database path.
func getDBPath() (string, error) {
	if dbPath != "" {
		return config.ExpandPath(dbPath), nil
	}

	return db.DefaultDBPath()
}

// apiError is a non-2xx response from the daemon.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// getJSON fetches path from the daemon and decodes the body into v.
func getJSON(ctx context.Context, path string, v any) error {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, base.String()+path, nil,
	)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach propsumd at %s: %w",
			serverURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp web.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return &apiError{
				Status: resp.StatusCode, Message: errResp.Error,
			}
		}

		return &apiError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}

	return json.Unmarshal(body, v)
}

// writeEnvelope renders env in the selected output format.
func writeEnvelope(w io.Writer, env *summary.Envelope) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(env)

	case "html":
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(env.Summary), &buf); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}

		_, err := fmt.Fprintf(w, "<article data-proposal=\"%d\">\n"+
			"<h1>Proposal #%d</h1>\n%s</article>\n", env.ID, env.ID,
			buf.String())
		return err

	case "markdown", "":
		source := "generated"
		if env.Cached {
			source = "cached"
		}

		_, err := fmt.Fprintf(w, "# Proposal #%d (%s)\n\n%s\n",
			env.ID, source, env.Summary)
		return err

	default:
		return fmt.Errorf("unknown format %q (want markdown, html or "+
			"json)", outputFormat)
	}
}
