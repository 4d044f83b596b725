// Package pkgerror holds the error vocabulary shared by modules: the
// ErrNotFound and ErrConflict sentinels that stores return, and the Error type
// that usecases return so the HTTP edge can render a message, a reason and a
// status code.
package pkgerror
