// Package table loads CSV and XLSX blobs into typed in-memory tables and
// joins two of them with relational semantics.
//
// Everything in this package is pure: no I/O beyond the byte slices handed in,
// no package state, and tables passed to Join are never mutated, so functions
// are safe to call concurrently.
//
// Column names are compared after NormalizeColumn, which lower-cases a name
// and collapses its whitespace into underscores ("Customer ID " and
// "customer_id" are the same column). Cells absent because a row had no match
// on the other side of a join hold the explicit Missing value, which renders
// as JSON null and as an empty CSV field.
package table
