package build

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// LogConfig configures the daemon's root logger.
type LogConfig struct {
	// Level is a btclog level name: trace, debug, info, warn, error,
	// critical or off.
	Level string

	// Console receives human readable output. Defaults to stderr.
	Console io.Writer

	// File adds a rotating log file output when set.
	File *LogFileConfig
}

// Logger is the root logger plus the resources backing it.
type Logger struct {
	*slog.Logger

	handlers *HandlerSet
	file     *LogFile
}

// NewLogger builds the root slog.Logger: a console handler and, if a log
// directory is configured, a rotating file handler, joined by a HandlerSet.
func NewLogger(cfg LogConfig) (*Logger, error) {
	level, ok := btclog.LevelFromString(strings.ToLower(cfg.Level))
	if cfg.Level == "" {
		level, ok = btclog.LevelInfo, true
	}
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []btclogv2.Handler{btclogv2.NewDefaultHandler(console)}

	var file *LogFile
	if cfg.File != nil {
		var err error
		file, err = OpenLogFile(cfg.File)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, btclogv2.NewDefaultHandler(file))
	}

	set := NewHandlerSet(handlers...)
	set.SetLevel(level)

	return &Logger{
		Logger:   slog.New(set),
		handlers: set,
		file:     file,
	}, nil
}

// SetLevel changes the level of every output.
func (l *Logger) SetLevel(level btclog.Level) {
	l.handlers.SetLevel(level)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	return l.file.Close()
}
