package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PathHandler wraps an slog.Handler and shortens home directory paths in
// string and error attributes.
type PathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// home is the directory replaced by "~". Empty disables rewriting.
	home string
}

// NewPathHandler creates a PathHandler around handler. If handler is nil,
// slog.Default().Handler() is used.
func NewPathHandler(handler slog.Handler, home string) *PathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PathHandler{handler: handler, home: filepath.Clean(home)}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it on.
func (h *PathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, h.ShortenPath(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *PathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rewritten := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		rewritten[i] = h.rewriteAttr(a)
	}
	return &PathHandler{handler: h.handler.WithAttrs(rewritten), home: h.home}
}

// WithGroup returns a new handler with the given group name.
func (h *PathHandler) WithGroup(name string) slog.Handler {
	return &PathHandler{handler: h.handler.WithGroup(name), home: h.home}
}

func (h *PathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		rewritten := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			rewritten[i] = h.rewriteAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rewritten...)}
	case slog.KindString:
		return slog.String(a.Key, h.ShortenPath(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.ShortenPath(err.Error()))
		}
	}
	return a
}

// ShortenPath replaces every occurrence of the home directory in s that is
// followed by a path separator, or ends s, with "~".
func (h *PathHandler) ShortenPath(s string) string {
	if h.home == "" || h.home == "." || h.home == string(filepath.Separator) {
		return s
	}
	if s == h.home {
		return "~"
	}
	return strings.ReplaceAll(s, h.home+string(filepath.Separator), "~"+string(filepath.Separator))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a text logger writing to w.
// verbose selects debug level; otherwise only warnings and errors are logged.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	textHandler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewPathHandler(textHandler, homeDir()))
}

// NewJSONLogger creates a JSON logger writing to w, for log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewPathHandler(jsonHandler, homeDir()))
}
