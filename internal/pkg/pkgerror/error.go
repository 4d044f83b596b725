package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the resource already exists or is busy.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	TypeServer     Type = iota // dependency or programming failure
	TypeBusiness               // domain rule violation
	TypeValidation             // malformed or unacceptable input
)

//nolint:gochecknoglobals // read-only lookup table
var typeNames = [...]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "ERROR_TYPE_UNKNOWN"
	}
	return typeNames[t]
}

// Code is a stable identifier that the HTTP edge maps to a status code.
type Code int

const (
	CodeInternal      Code = iota
	CodeInvalidFormat      // request could not be decoded
	CodeInvalidInput       // request decoded but its values are unacceptable
	CodeNotFound
	CodeConflict
	CodeTimeout     // a dependency did not answer in time
	CodeUnavailable // a dependency could not be reached
)

//nolint:gochecknoglobals // read-only lookup table
var codeInfo = [...]struct {
	name   string
	status int
}{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeTimeout:       {"ERROR_CODE_TIMEOUT", http.StatusGatewayTimeout},
	CodeUnavailable:   {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) valid() bool {
	return c >= 0 && int(c) < len(codeInfo)
}

func (c Code) String() string {
	if !c.valid() {
		return codeInfo[CodeInternal].name
	}
	return codeInfo[c].name
}

// Error is a structured error used across the application.
//
// It wraps the underlying error and carries the message shown to API clients,
// a stable reason naming the failure kind (for example "DATASET_NOT_FOUND"),
// a type and a code.
type Error struct {
	err     error
	msg     string
	reason  string
	errType Type
	code    Code
}

// Error returns the text of the wrapped error, falling back to the client
// message and then to the code name.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.code.String()
	}
}

// String returns a verbose representation of the error for logging.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s reason=%s msg=%q cause=%v",
		e.errType, e.code, e.reason, e.msg, e.err)
}

// Msg returns the client-facing message.
func (e *Error) Msg() string { return e.msg }

// Reason returns the failure kind.
func (e *Error) Reason() string { return e.reason }

// Type returns the high-level error type.
func (e *Error) Type() Type { return e.errType }

// Code returns the stable error code.
func (e *Error) Code() Code { return e.code }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if !e.code.valid() {
		return http.StatusInternalServerError
	}
	return codeInfo[e.code].status
}

// NewKind creates an error for a named failure kind.
//
// The client message is taken from err, so err must not carry internal
// details such as bucket paths or driver output.
func NewKind(err error, reason string, et Type, code Code) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{err: err, msg: msg, reason: reason, errType: et, code: code}
}

// NewServer hides err behind a generic message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", reason: "INTERNAL", errType: TypeServer, code: CodeInternal}
}

// NewTimeout reports that a dependency did not answer before the deadline.
func NewTimeout(err error) error {
	return &Error{err: err, msg: "dependency timed out", reason: "TIMEOUT", errType: TypeServer, code: CodeTimeout}
}

// NewInvalidInput reports a request whose values are unacceptable. The text of
// err is shown to the client.
func NewInvalidInput(err error) error {
	return NewKind(err, "INVALID_INPUT", TypeValidation, CodeInvalidInput)
}

// NewInvalidFormat reports a request that could not be decoded. A nil err
// yields a generic message.
func NewInvalidFormat(err error) error {
	if err == nil {
		return &Error{msg: "invalid request body", reason: "INVALID_FORMAT", errType: TypeValidation, code: CodeInvalidFormat}
	}
	return NewKind(err, "INVALID_FORMAT", TypeValidation, CodeInvalidFormat)
}
