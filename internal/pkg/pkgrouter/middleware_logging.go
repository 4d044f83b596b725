package pkgrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// maxLoggedErrorBytes caps how much of an error response is kept for the log.
const maxLoggedErrorBytes = 4 << 10

//nolint:gochecknoglobals // read-only lookup table
var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
	"x-api-key":     {},
	"access_key":    {},
	"secret_key":    {},
	"token":         {},
}

func isSensitive(key string) bool {
	_, found := sensitiveKeys[strings.ToLower(key)]
	return found
}

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for key := range result {
		if isSensitive(key) {
			result.Set(key, "***")
		}
	}
	return result
}

func maskQuery(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}

	masked := make(map[string]string, len(values))
	for k, v := range values {
		if isSensitive(k) {
			masked[k] = "***"
			continue
		}
		masked[k] = strings.Join(v, ",")
	}
	return masked
}

// statusRecorder remembers the status and size of a response. The body is
// kept only for error statuses, since successful bodies may carry dataset rows.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	bytes   int
	errBody bytes.Buffer
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if w.status >= http.StatusBadRequest {
		if remaining := maxLoggedErrorBytes - w.errBody.Len(); remaining > 0 {
			w.errBody.Write(p[:min(len(p), remaining)])
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) errorBody() any {
	if w.errBody.Len() == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(w.errBody.Bytes(), &decoded); err == nil {
		return decoded
	}
	if !utf8.Valid(w.errBody.Bytes()) {
		return "<binary body omitted>"
	}
	return w.errBody.String()
}

type routeContextKey struct{}

func middlewareRoute(pattern string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), routeContextKey{}, pattern)))
		})
	}
}

func matchedRoutePath(r *http.Request) string {
	if pattern, ok := r.Context().Value(routeContextKey{}).(string); ok && pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// middlewareLogging writes one entry when a request arrives and one when its
// response is complete. Request bodies are never read: uploads are multipart
// and the remaining endpoints take their input from the path and query.
func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"query", maskQuery(r.URL.Query()),
			"content_type", r.Header.Get("Content-Type"),
			"content_length", r.ContentLength,
			"headers", maskHeaders(r.Header),
		)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", rec.bytes,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if body := rec.errorBody(); body != nil {
			attrs = append(attrs, "body", body)
		}

		slog.Log(r.Context(), levelFor(status), "response sent", attrs...)
	})
}
