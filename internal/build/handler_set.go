package build

import (
	"context"
	"errors"
	"log/slog"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// HandlerSet fans log records out to several btclog handlers, typically the
// console and the rotating log file. A record is written to every handler
// that accepts its level, and a failing handler does not starve the others.
type HandlerSet struct {
	level btclog.Level
	set   []btclogv2.Handler
}

// NewHandlerSet builds a HandlerSet at the Info level.
func NewHandlerSet(handlers ...btclogv2.Handler) *HandlerSet {
	h := &HandlerSet{set: handlers}
	h.SetLevel(btclog.LevelInfo)

	return h
}

// Enabled reports whether any handler accepts level.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) Enabled(ctx context.Context, level slog.Level) bool {
	return anyEnabled(ctx, level, h.slogHandlers())
}

// Handle dispatches record to every handler enabled for its level.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) Handle(ctx context.Context, record slog.Record) error {
	return handleAll(ctx, record, h.slogHandlers())
}

// WithAttrs returns a handler set carrying attrs.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler {
		return s.WithAttrs(attrs)
	})
}

// WithGroup returns a handler set nested under name.
//
// NOTE: this is part of the slog.Handler interface.
func (h *HandlerSet) WithGroup(name string) slog.Handler {
	return h.derive(func(s slog.Handler) slog.Handler {
		return s.WithGroup(name)
	})
}

// SubSystem returns a handler set tagged with the given sub-system.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) SubSystem(tag string) btclogv2.Handler {
	return h.mapHandlers(func(b btclogv2.Handler) btclogv2.Handler {
		return b.SubSystem(tag)
	})
}

// WithPrefix returns a handler set prefixing every message.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) WithPrefix(prefix string) btclogv2.Handler {
	return h.mapHandlers(func(b btclogv2.Handler) btclogv2.Handler {
		return b.WithPrefix(prefix)
	})
}

// SetLevel changes the level of every handler.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) SetLevel(level btclog.Level) {
	for _, handler := range h.set {
		handler.SetLevel(level)
	}
	h.level = level
}

// Level returns the current level.
//
// NOTE: this is part of the btclog.Handler interface.
func (h *HandlerSet) Level() btclog.Level {
	return h.level
}

func (h *HandlerSet) mapHandlers(
	f func(btclogv2.Handler) btclogv2.Handler) *HandlerSet {

	out := &HandlerSet{
		level: h.level,
		set:   make([]btclogv2.Handler, len(h.set)),
	}
	for i, handler := range h.set {
		out.set[i] = f(handler)
	}

	return out
}

func (h *HandlerSet) derive(f func(slog.Handler) slog.Handler) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(h.set))}
	for i, handler := range h.set {
		out.set[i] = f(handler)
	}

	return out
}

func (h *HandlerSet) slogHandlers() []slog.Handler {
	out := make([]slog.Handler, len(h.set))
	for i, handler := range h.set {
		out[i] = handler
	}

	return out
}

var _ btclogv2.Handler = (*HandlerSet)(nil)

// slogSet is what WithAttrs and WithGroup hand back: the derived handlers
// are plain slog.Handlers, so the btclog methods are gone.
type slogSet struct {
	set []slog.Handler
}

func (s *slogSet) Enabled(ctx context.Context, level slog.Level) bool {
	return anyEnabled(ctx, level, s.set)
}

func (s *slogSet) Handle(ctx context.Context, record slog.Record) error {
	return handleAll(ctx, record, s.set)
}

func (s *slogSet) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(s.set))}
	for i, handler := range s.set {
		out.set[i] = handler.WithAttrs(attrs)
	}

	return out
}

func (s *slogSet) WithGroup(name string) slog.Handler {
	out := &slogSet{set: make([]slog.Handler, len(s.set))}
	for i, handler := range s.set {
		out.set[i] = handler.WithGroup(name)
	}

	return out
}

var _ slog.Handler = (*slogSet)(nil)

func anyEnabled(ctx context.Context, level slog.Level,
	handlers []slog.Handler) bool {

	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func handleAll(ctx context.Context, record slog.Record,
	handlers []slog.Handler) error {

	var errs []error
	for _, handler := range handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}

		// Each handler gets its own copy, Handle may retain it.
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
