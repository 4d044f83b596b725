package pkglog

import (
	"context"
	"log/slog"
)

type (
	correlationIDKey struct{}
	attrsKey         struct{}
)

// GetCorrelationID returns the correlation id stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	cid, _ := ctx.Value(correlationIDKey{}).(string)
	return cid
}

// SetCorrelationID stores a correlation id in ctx.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cid)
}

// WithAttrs returns a context whose log records carry args in addition to any
// attributes already stored in ctx. args follow the slog key/value convention.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	rec := slog.Record{}
	rec.Add(args...)

	prev := attrsFrom(ctx)
	attrs := make([]slog.Attr, 0, len(prev)+rec.NumAttrs())
	attrs = append(attrs, prev...)
	rec.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	return context.WithValue(ctx, attrsKey{}, attrs)
}

func attrsFrom(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}
