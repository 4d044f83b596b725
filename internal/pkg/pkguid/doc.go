// Package pkguid generates identifiers: UUIDs for correlation and event ids,
// unguessable tokens for merge handles, and Snowflake numbers that keep
// promoted object names unique.
package pkguid
