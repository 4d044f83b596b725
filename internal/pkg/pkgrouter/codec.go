package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// writeSuccess wraps resp in the success envelope. A response may choose its
// status with StatusCode() int, its message with Message() string and its meta
// block with Meta() map[string]any.
func writeSuccess(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		out.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		out.Meta = m.Meta()
	}

	writeJSON(w, out, code)
}

// writeError renders err in the error envelope. Errors that are not a
// *pkgerror.Error never leak their text to the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		slog.ErrorContext(ctx, "unclassified error returned by handler", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	status := perr.StatusCode()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "code", perr.Code().String(), "reason", perr.Reason(), "error", err)
	}

	resp := errorResponse{Message: perr.Msg()}
	if reason := perr.Reason(); reason != "" {
		resp.Error = map[string]string{"reason": reason}
	}

	writeJSON(w, resp, status)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response body", "status", code, "error", err)
	}
}
