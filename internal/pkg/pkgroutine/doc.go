// Package pkgroutine runs the long-lived background tasks of the service,
// such as the staging sweeper, under a concurrency limit and reports their
// errors and panics at shutdown.
package pkgroutine
