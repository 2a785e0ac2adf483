// Package scan decodes scanner output lines into typed events and encodes
// validated events back into table rows.
//
// Inbox lines carry, comma separated: scan timestamp, device address, process
// name, part key, quantity, the variable fields the process requires (in the
// fixed order JBK, Lot, Deburr JBK, Die, Model, Heat), production timestamp,
// shift, and operator. Quantity, shift, and operator may each hold up to three
// colon separated values when a basket was split across shifts.
//
// Table rows move the process name to the front and keep only the primary
// data set.
package scan
