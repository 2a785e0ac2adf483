// Package failures appends unprocessable scanner lines to a plain-text log
// that operators review by hand.
package failures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"lotwatch/internal/fileutil"
)

const (
	separator       = "--------------------"
	timestampLayout = "01/02/2006 15:04:05"
)

// Entry is one failed line.
type Entry struct {
	Time    time.Time
	Raw     string
	Type    string
	Message string
}

// Format renders e in the log's block layout.
func (e Entry) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Could not process '%s'.\n", e.Time.Format(timestampLayout), e.Raw)
	b.WriteString("\tException:\n")
	fmt.Fprintf(&b, "\t\tType: %s\n", e.Type)
	fmt.Fprintf(&b, "\t\tMessage: %s\n", e.Message)
	b.WriteString(separator)
	b.WriteByte('\n')
	return b.String()
}

// Log is an append-only failure log.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Record appends an entry for raw. Type names the error class.
func (l *Log) Record(raw, errType string, cause error) error {
	message := "<nil>"
	if cause != nil {
		message = cause.Error()
	}
	entry := Entry{Time: l.now(), Raw: raw, Type: errType, Message: message}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create failure log directory: %w", err)
	}
	if err := fileutil.AppendText(l.path, entry.Format()); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	return nil
}
