package clog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
)

// HTTPColumns and ConnectColumns are the attributes printed inline, in
// order, before the message. Everything else goes on indented lines below.
var (
	HTTPColumns    = []string{"proto", "method", "path", "status"}
	ConnectColumns = []string{"method", "stream_type", "procedure"}
)

type TextHandlerConfig struct {
	Color   bool
	Level   slog.Leveler
	Columns []string
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Leveler) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = level
	}
}

func WithColumns(keys ...string) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Columns = keys
	}
}

// TextHandler is a coloured, human oriented slog handler for local runs.
type TextHandler struct {
	cfg   TextHandlerConfig
	attrs []slog.Attr
	mu    *sync.Mutex
	w     io.Writer
}

func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	cfg := TextHandlerConfig{Color: true, Columns: HTTPColumns}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &TextHandler{cfg: cfg, mu: &sync.Mutex{}, w: w}
}

func (h *TextHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.cfg.Level != nil {
		minLevel = h.cfg.Level.Level()
	}
	return l >= minLevel
}

func (h *TextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup is a no-op; groups are flattened into the attribute lines.
func (h *TextHandler) WithGroup(string) slog.Handler {
	return h
}

func (h *TextHandler) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgBlue
	default:
		return color.FgCyan
	}
}

func (h *TextHandler) Handle(_ context.Context, record slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 1024))
	plain := h.paint()

	plain.Fprintf(buf, "%s ", record.Time.Format(time.RFC3339))
	h.paint(levelColor(record.Level)).Fprintf(buf, "%s ", record.Level)

	kv := make(map[string]slog.Value, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		kv[attr.Key] = attr.Value
	}
	record.Attrs(func(attr slog.Attr) bool {
		kv[attr.Key] = attr.Value
		return true
	})
	for _, key := range h.cfg.Columns {
		if v, ok := kv[key]; ok {
			plain.Fprintf(buf, "%s ", v)
			delete(kv, key)
		}
	}

	msg := h.paint(color.FgGreen)
	if v, ok := kv["code"]; ok {
		delete(kv, "code")
		msg.Fprintf(buf, "[%s] ", v)
	}
	msg.Fprint(buf, record.Message)
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		h.paint(color.FgRed).Fprintf(buf, " %q", e.String())
	}
	buf.WriteByte('\n')

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		plain.Fprintf(buf, "    %s=%s\n", k, kv[k])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write log record: %w", err)
	}
	return nil
}
