// Package device sends feedback commands to networked barcode scanners.
//
// Commands are built separately from the transport: Command values render
// their own wire text, and a Notifier delivers them. The TCP notifier opens a
// short-lived connection per delivery with bounded dial and write timeouts.
// When notifications are disabled a no-op notifier is returned so pipeline
// code never branches on configuration.
package device
