package pkgrouter

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 3 * time.Second

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// AddHealthCheck registers a dependency probe reported by GET /health. The
// endpoint answers 503 while any probe fails.
func (r *Router) AddHealthCheck(name string, check func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.checks = append(r.checks, healthCheck{name: name, check: check})
}

func (r *Router) serveHealth(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	checks := make([]healthCheck, len(r.checks))
	copy(checks, r.checks)
	r.mu.RUnlock()

	status := http.StatusOK
	results := make(map[string]string, len(checks))
	for _, hc := range checks {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		err := hc.check(ctx)
		cancel()

		if err != nil {
			slog.WarnContext(req.Context(), "health check failed", "check", hc.name, "error", err)
			results[hc.name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[hc.name] = "ok"
	}

	msg := "server is running well"
	if status != http.StatusOK {
		msg = "server is degraded"
	}

	writeJSON(w, map[string]any{"message": msg, "checks": results}, status)
}
