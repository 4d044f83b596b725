package pkgrouter

import (
	"context"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
)

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
type Handler func(ctx context.Context, r *http.Request) (any, error)

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware

	mu     sync.RWMutex
	checks []healthCheck
}

// NewRouter builds the application router with recovery, correlation id and
// access logging middleware, plus the "/" and "/health" endpoints.
func NewRouter(ids Generator) *Router {
	ro := &Router{
		mws: []Middleware{
			middlewareRecoverer,
			middlewareCorrelationID(ids),
			middlewareLogging,
		},
	}

	ro.hr = &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, errorResponse{
				Message: "endpoint not found",
				Error:   map[string]string{"reason": "ENDPOINT_NOT_FOUND"},
			}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, errorResponse{
				Message: "method not allowed",
				Error:   map[string]string{"reason": "METHOD_NOT_ALLOWED"},
			}, http.StatusMethodNotAllowed)
		}),
	}

	ro.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"message": "tabmerge dataset service"}, http.StatusOK)
	}))
	ro.Handle(http.MethodGet, "/health", http.HandlerFunc(ro.serveHealth))

	return ro
}

// Use appends middleware to the stack of endpoints registered afterwards.
func (r *Router) Use(mws ...Middleware) {
	r.mws = append(r.mws, mws...)
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// DELETE registers a DELETE endpoint using the application Handler signature.
func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

// Handle registers a raw http.Handler with the router.
func (r *Router) Handle(method, path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(h, r.stack(path, mws)...))
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.Handle(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(req.Context(), req)
		if err != nil {
			writeError(req.Context(), w, err)
			return
		}
		writeSuccess(w, resp)
	}), mws...)
}

func (r *Router) stack(path string, mws []Middleware) []Middleware {
	all := make([]Middleware, 0, len(r.mws)+len(mws)+1)
	all = append(all, middlewareRoute(path))
	all = append(all, r.mws...)
	return append(all, mws...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
