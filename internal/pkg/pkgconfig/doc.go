// Package pkgconfig exposes application configuration through the Config
// interface. Modules read typed values by dotted key and never see where a
// value came from: a YAML file, a .env file, the environment or a default.
package pkgconfig
