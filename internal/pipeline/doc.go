// Package pipeline runs the watcher's polling loop.
//
// Each cycle drains the inbox, decodes every line concurrently, routes the
// decoded events through the table store in inbox order, and reports
// rejections to the originating scanner. Per-record and per-table problems are
// logged and written to the failure log; anything unclassified ends the loop
// so a supervisor can restart the process.
package pipeline
