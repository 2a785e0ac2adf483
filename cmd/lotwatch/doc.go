// Command lotwatch runs the scan ingestion daemon and its maintenance
// utilities: configuration setup, table management, line decoding, journal
// history, and scanner alert checks.
package main
