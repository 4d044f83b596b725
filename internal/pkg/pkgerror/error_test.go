package pkgerror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestTypeString(t *testing.T) {
	cases := map[Type]string{
		TypeServer:     "ERROR_TYPE_SERVER",
		TypeBusiness:   "ERROR_TYPE_BUSINESS",
		TypeValidation: "ERROR_TYPE_VALIDATION",
		Type(99):       "ERROR_TYPE_UNKNOWN",
		Type(-1):       "ERROR_TYPE_UNKNOWN",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("type %d: expected %q, got %q", int(typ), want, got)
		}
	}
}

func TestCodeStringAndStatus(t *testing.T) {
	cases := []struct {
		code   Code
		name   string
		status int
	}{
		{CodeInternal, "ERROR_CODE_INTERNAL", http.StatusInternalServerError},
		{CodeInvalidFormat, "ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
		{CodeInvalidInput, "ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
		{CodeNotFound, "ERROR_CODE_NOT_FOUND", http.StatusNotFound},
		{CodeConflict, "ERROR_CODE_CONFLICT", http.StatusConflict},
		{CodeTimeout, "ERROR_CODE_TIMEOUT", http.StatusGatewayTimeout},
		{CodeUnavailable, "ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
		{Code(99), "ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.String(); got != tc.name {
			t.Fatalf("code %d: expected %q, got %q", int(tc.code), tc.name, got)
		}
		perr := NewKind(errors.New("x"), "X", TypeServer, tc.code).(*Error)
		if got := perr.StatusCode(); got != tc.status {
			t.Fatalf("code %d: expected status %d, got %d", int(tc.code), tc.status, got)
		}
	}
}

func TestNewServerHidesCause(t *testing.T) {
	root := errors.New("pq: connection refused")
	err := NewServer(root)

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected wrapped error")
	}
	if perr.Msg() != "Internal server error" || perr.Reason() != "INTERNAL" {
		t.Fatalf("unexpected msg/reason: %q %q", perr.Msg(), perr.Reason())
	}
	if perr.Type() != TypeServer || perr.Code() != CodeInternal {
		t.Fatalf("unexpected type/code: %v %v", perr.Type(), perr.Code())
	}
	if perr.Error() != root.Error() {
		t.Fatalf("expected Error() to expose the cause for logs, got %q", perr.Error())
	}
}

func TestNewTimeout(t *testing.T) {
	err := NewTimeout(fmt.Errorf("get object: %w", context.DeadlineExceeded)).(*Error)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline in chain")
	}
	if err.StatusCode() != http.StatusGatewayTimeout || err.Reason() != "TIMEOUT" {
		t.Fatalf("unexpected status/reason: %d %q", err.StatusCode(), err.Reason())
	}
	if strings.Contains(err.Msg(), "get object") {
		t.Fatalf("message leaks cause: %q", err.Msg())
	}
}

func TestValidationErrors(t *testing.T) {
	in := NewInvalidInput(errors.New("file1_id is required")).(*Error)
	if in.Msg() != "file1_id is required" || in.Reason() != "INVALID_INPUT" {
		t.Fatalf("unexpected invalid input: %q %q", in.Msg(), in.Reason())
	}
	if in.StatusCode() != http.StatusUnprocessableEntity || in.Type() != TypeValidation {
		t.Fatalf("unexpected status/type: %d %v", in.StatusCode(), in.Type())
	}

	bare := NewInvalidFormat(nil).(*Error)
	if bare.Msg() != "invalid request body" || bare.Error() != "invalid request body" {
		t.Fatalf("unexpected bare format error: %q %q", bare.Msg(), bare.Error())
	}
	if bare.Unwrap() != nil {
		t.Fatalf("expected no cause")
	}

	detailed := NewInvalidFormat(errors.New("expected multipart/form-data body")).(*Error)
	if detailed.Msg() != "expected multipart/form-data body" || detailed.StatusCode() != http.StatusBadRequest {
		t.Fatalf("unexpected detailed format error: %q %d", detailed.Msg(), detailed.StatusCode())
	}
}

func TestNewKind(t *testing.T) {
	sentinel := errors.New("dataset not found")
	err := NewKind(fmt.Errorf("%w: 7", sentinel), "DATASET_NOT_FOUND", TypeBusiness, CodeNotFound)

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel in chain")
	}
	if perr.Msg() != "dataset not found: 7" || perr.Reason() != "DATASET_NOT_FOUND" {
		t.Fatalf("unexpected msg/reason: %q %q", perr.Msg(), perr.Reason())
	}
	if perr.StatusCode() != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", perr.StatusCode())
	}
}

func TestErrorFallbackText(t *testing.T) {
	if got := (&Error{code: CodeConflict}).Error(); got != "ERROR_CODE_CONFLICT" {
		t.Fatalf("expected code name fallback, got %q", got)
	}
	if got := (&Error{msg: "busy"}).Error(); got != "busy" {
		t.Fatalf("expected msg fallback, got %q", got)
	}
}

func TestErrorStringIncludesDetails(t *testing.T) {
	err := NewKind(errors.New("boom"), "X_FAILED", TypeServer, CodeUnavailable).(*Error)
	got := err.String()
	for _, want := range []string{"ERROR_TYPE_SERVER", "ERROR_CODE_UNAVAILABLE", "reason=X_FAILED", "cause=boom"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}
