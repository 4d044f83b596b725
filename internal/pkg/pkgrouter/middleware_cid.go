package pkgrouter

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/tabmerge/internal/pkg/pkglog"
)

// Generator generates a unique string (used for correlation/request IDs).
type Generator interface {
	Generate() string
}

const (
	// HeaderCorrelationID is the canonical header used to track requests end-to-end.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is an accepted alternative header name used by some proxies.
	HeaderRequestID = "X-Request-ID"

	maxCIDLength = 128
)

// incomingCIDHeaders lists, in order of preference, the headers a caller may
// use to pass its own correlation id.
//
//nolint:gochecknoglobals // read-only
var incomingCIDHeaders = []string{HeaderCorrelationID, HeaderRequestID}

// normalizeCID trims v and rejects values with control characters. Long values
// are cut to maxCIDLength.
func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	for i := 0; i < len(v); i++ {
		if v[i] < 0x20 || v[i] == 0x7f {
			return ""
		}
	}
	if len(v) > maxCIDLength {
		v = v[:maxCIDLength]
	}
	return v
}

func correlationID(r *http.Request, ids Generator) string {
	for _, h := range incomingCIDHeaders {
		if cid := normalizeCID(r.Header.Get(h)); cid != "" {
			return cid
		}
	}
	if ids == nil {
		return ""
	}
	return ids.Generate()
}

func middlewareCorrelationID(ids Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cid := correlationID(r, ids); cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(pkglog.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
