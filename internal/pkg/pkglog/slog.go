package pkglog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "tabmerge"

//nolint:gochecknoglobals // shared by the default logger
var level = new(slog.LevelVar)

// InitLogging installs the default JSON logger on stdout. Configure may swap
// the format once configuration is loaded.
func InitLogging() {
	slog.SetDefault(slog.New(newHandler(os.Stdout, "json")))
}

// Configure sets the output format ("json" or "text") and the minimum level
// of the default logger.
func Configure(format, levelName string) {
	SetLevel(levelName)
	slog.SetDefault(slog.New(newHandler(os.Stdout, format)))
}

// SetLevel changes the minimum level of the default logger.
//
// Unknown values fall back to info.
func SetLevel(name string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		l = slog.LevelInfo
	}
	level.Set(l)
}

func newHandler(w io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	}

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &contextHandler{Handler: h}
}

// replaceAttr renames the builtin keys to ts/severity and shortens the source
// to a repository-relative "internal/...go:line".
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		idx := strings.LastIndex(src.File, "/internal/")
		if idx == -1 {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("%s:%d", src.File[idx+1:], src.Line))
	}
	return a
}

// contextHandler adds the service name, the correlation id and any attributes
// stored with WithAttrs to every record.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cid := GetCorrelationID(ctx); cid != "" {
		r.AddAttrs(slog.String("_cID", cid))
	}
	if attrs := attrsFrom(ctx); len(attrs) > 0 {
		r.AddAttrs(attrs...)
	}
	r.AddAttrs(slog.String("service", serviceName))

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
