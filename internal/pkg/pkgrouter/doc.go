// Package pkgrouter is the HTTP surface shared by modules: an httprouter-based
// router whose handlers return a payload or an error, the JSON success and
// error envelopes, dependency health checks, and the recovery, correlation id
// and access log middleware.
package pkgrouter
