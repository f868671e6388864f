package build

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/stretchr/testify/require"
)

func TestHandlerSetFanOut(t *testing.T) {
	var a, b bytes.Buffer
	set := NewHandlerSet(
		btclogv2.NewDefaultHandler(&a), btclogv2.NewDefaultHandler(&b),
	)
	log := slog.New(set)

	log.Info("Summary cache connected", "attempt", 1)
	log.Debug("hidden at info")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		require.Contains(t, buf.String(), "Summary cache connected")
		require.NotContains(t, buf.String(), "hidden at info")
	}

	set.SetLevel(btclog.LevelDebug)
	require.Equal(t, btclog.LevelDebug, set.Level())

	log.With("component", "summary").Debug("now visible")
	require.Contains(t, a.String(), "now visible")
	require.Contains(t, b.String(), "now visible")
}

// failingHandler rejects every record.
type failingHandler struct {
	slog.Handler
}

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func TestHandleAllContinuesPastFailure(t *testing.T) {
	var buf bytes.Buffer
	handlers := []slog.Handler{
		failingHandler{}, slog.NewTextHandler(&buf, nil),
	}

	log := slog.New(&slogSet{set: handlers})
	log.Info("still written")

	require.Contains(t, buf.String(), "still written")
}

func TestNewLogger(t *testing.T) {
	var console bytes.Buffer
	logDir := t.TempDir()

	fileCfg := DefaultLogFileConfig(logDir)

	logger, err := NewLogger(LogConfig{
		Level:   "debug",
		Console: &console,
		File:    fileCfg,
	})
	require.NoError(t, err)

	logger.Debug("Checking cache", "proposal_id", 7)
	require.NoError(t, logger.Close())

	require.Contains(t, console.String(), "Checking cache")

	contents, err := os.ReadFile(fileCfg.Path())
	require.NoError(t, err)
	require.Contains(t, string(contents), "Checking cache")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "chatty"})
	require.ErrorContains(t, err, "unknown log level")
}

func TestVersion(t *testing.T) {
	Commit = "0123456789abcdef"
	t.Cleanup(func() { Commit = "" })

	require.Equal(t, "0.1.0-0123456789ab", Version())
	require.True(t, strings.HasPrefix(GoVersion(), "go"))
}
