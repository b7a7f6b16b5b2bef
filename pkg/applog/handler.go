package applog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Handler tees records at or above its level into a Buffer.
type Handler struct {
	buf   *Buffer
	next  slog.Handler
	level slog.Leveler

	// preformatted attrs from WithAttrs, and the current group prefix
	attrs  string
	prefix string
}

// NewHandler creates a handler that buffers Info and above and forwards
// everything to next. next may be nil.
func NewHandler(buf *Buffer, next slog.Handler) *Handler {
	return &Handler{buf: buf, next: next, level: slog.LevelInfo}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		var sb strings.Builder
		sb.WriteString(r.Message)
		sb.WriteString(h.attrs)
		r.Attrs(func(a slog.Attr) bool {
			writeAttr(&sb, h.prefix, a)
			return true
		})
		t := r.Time
		if t.IsZero() {
			t = time.Now()
		}
		h.buf.Addf(t, sb.String())
	}

	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&sb, h.prefix, a)
	}
	c.attrs = sb.String()
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, p, ga)
		}
		return
	}
	fmt.Fprintf(sb, " %s%s=%v", prefix, a.Key, a.Value.Any())
}

var _ slog.Handler = (*Handler)(nil)
