// Package pkglog configures the slog default logger: JSON or text output with
// "ts", "severity" and "file" keys, a runtime adjustable level, and context
// attributes (correlation id and values added with WithAttrs) copied onto
// every record.
package pkglog
