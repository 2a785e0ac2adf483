package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"lotwatch/internal/config"
)

// NotificationError reports a failed delivery to a scanner.
type NotificationError struct {
	Address string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify scanner %s: %v", e.Address, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Notifier delivers commands to a scanner.
type Notifier interface {
	Send(ctx context.Context, addr netip.Addr, commands ...Command) error
}

// Reject sends a validation failure followed by an alert showing message.
func Reject(ctx context.Context, n Notifier, addr netip.Addr, alertFor time.Duration, message string) error {
	return n.Send(ctx, addr, ValidationFailed(), Alert(alertFor, message))
}

// NewNotifier builds a TCP notifier when device feedback is enabled.
func NewNotifier(cfg *config.Config) Notifier {
	if cfg == nil || !cfg.Device.Enabled {
		return Noop{}
	}
	return &TCPNotifier{
		Port:         cfg.Device.Port,
		DialTimeout:  cfg.DialTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
}

// TCPNotifier writes commands over a fresh TCP connection.
type TCPNotifier struct {
	Port         int
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Send dials addr and writes every command in order.
func (n *TCPNotifier) Send(ctx context.Context, addr netip.Addr, commands ...Command) error {
	target := net.JoinHostPort(addr.String(), strconv.Itoa(n.Port))
	if !addr.IsValid() || addr.IsUnspecified() {
		return &NotificationError{Address: target, Err: errors.New("invalid scanner address")}
	}
	if len(commands) == 0 {
		return nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, n.DialTimeout)
	defer cancel()
	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", target)
	if err != nil {
		return &NotificationError{Address: target, Err: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(n.WriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return &NotificationError{Address: target, Err: err}
	}

	var payload strings.Builder
	for _, cmd := range commands {
		payload.WriteString(cmd.Wire())
	}
	if _, err := conn.Write([]byte(payload.String())); err != nil {
		return &NotificationError{Address: target, Err: err}
	}
	return nil
}

// Noop discards every command.
type Noop struct{}

func (Noop) Send(context.Context, netip.Addr, ...Command) error { return nil }
