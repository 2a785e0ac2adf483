// Package tables persists validated scans in one append-only text table per
// process.
//
// Every insertion is a load, validate, append, and atomic rewrite of the
// process's table file, serialized by an in-process mutex and an advisory
// file lock. Readers of upstream tables rely on the atomic rename and take no
// lock.
package tables
