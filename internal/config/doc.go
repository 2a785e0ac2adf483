// Package config loads, normalizes, and validates lotwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// watcher daemon and CLI need: where the scanner inbox lives, where the
// per-process tables and failure log are kept, how scanners are contacted, and
// the traceability window applied when checking previous processes.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
