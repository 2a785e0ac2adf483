package device

import (
	"fmt"
	"strings"
	"time"
)

const (
	commandPrefix = "||>"
	lineEnd       = "\r\n"
)

// Kind enumerates supported scanner commands.
type Kind int

const (
	KindValidationFailed Kind = iota
	KindAlert
)

// Command is one scanner instruction.
type Command struct {
	Kind     Kind
	Duration time.Duration
	Message  string
}

// ValidationFailed rejects the scanner's last read.
func ValidationFailed() Command {
	return Command{Kind: KindValidationFailed}
}

// Alert displays message on the scanner for d, rounded up to whole seconds.
func Alert(d time.Duration, message string) Command {
	return Command{Kind: KindAlert, Duration: d, Message: message}
}

// Wire renders the command text including the line terminator.
func (c Command) Wire() string {
	switch c.Kind {
	case KindValidationFailed:
		return commandPrefix + "VALIDATION.FAIL" + lineEnd
	case KindAlert:
		return fmt.Sprintf("%sUI.ALERT %d \"%s\"%s", commandPrefix, alertSeconds(c.Duration), sanitize(c.Message), lineEnd)
	default:
		return ""
	}
}

func (c Command) String() string {
	return strings.TrimSuffix(c.Wire(), lineEnd)
}

func alertSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	secs := int((d + time.Second - 1) / time.Second)
	return secs
}

// sanitize strips characters that would break the quoted, single-line command.
func sanitize(message string) string {
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\"", "'")
	return strings.TrimSpace(replacer.Replace(message))
}

// MissingPreviousMessage is the alert text for a unit not seen upstream.
func MissingPreviousMessage(previous string) string {
	return "Not scanned at previous process: " + previous
}

// DuplicateMessage is the alert text for a repeated label.
const DuplicateMessage = "Duplicate label"
