package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCycleID is the standardized key for polling cycle identifiers.
	FieldCycleID = "cycle_id"
	// FieldProcess is the standardized key for manufacturing process names.
	FieldProcess = "process"
	// FieldEventType classifies log lines for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey int

const (
	cycleIDKey contextKey = iota
	processKey
)

// WithCycleID annotates ctx with the identifier of the current polling cycle.
func WithCycleID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleIDFromContext returns the polling cycle identifier, if any.
func CycleIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(cycleIDKey).(string)
	return id, ok && id != ""
}

// WithProcess annotates ctx with the process currently being handled.
func WithProcess(ctx context.Context, process string) context.Context {
	process = strings.TrimSpace(process)
	if process == "" {
		return ctx
	}
	return context.WithValue(ctx, processKey, process)
}

// ProcessFromContext returns the process name, if any.
func ProcessFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	process, ok := ctx.Value(processKey).(string)
	return process, ok && process != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := CycleIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCycleID, id))
	}
	if process, ok := ProcessFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProcess, process))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
