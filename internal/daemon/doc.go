// Package daemon coordinates the long-running lotwatch process.
//
// It wires configuration, the process catalog, table storage, the inbox, the
// failure log, scanner feedback, and the optional journal into a single
// pipeline worker, and holds a flock-based lock so only one instance drains
// the inbox at a time.
//
// Keep orchestration here: validation, storage, and transport belong to their
// own packages.
package daemon
