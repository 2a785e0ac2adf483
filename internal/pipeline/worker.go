package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lotwatch/internal/device"
	"lotwatch/internal/journal"
	"lotwatch/internal/logging"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
)

// Inbox yields the raw lines queued since the previous drain.
type Inbox interface {
	Drain(ctx context.Context) ([]string, error)
}

// Decoder turns a raw inbox line into an event.
type Decoder interface {
	Decode(line string) (scan.Event, error)
}

// TableAppender validates and persists events.
type TableAppender interface {
	Append(ctx context.Context, processName string, event scan.Event) (tables.Outcome, error)
}

// FailureRecorder retires lines that could not be processed.
type FailureRecorder interface {
	Record(raw, errType string, cause error) error
}

// Journal records routed outcomes.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Dependencies bundles the collaborators a Worker drives. Journal may be nil.
type Dependencies struct {
	Inbox    Inbox
	Decoder  Decoder
	Tables   TableAppender
	Notifier device.Notifier
	Failures FailureRecorder
	Journal  Journal
}

// Options tunes the polling loop.
type Options struct {
	PollInterval  time.Duration
	DecodeWorkers int
	AlertDuration time.Duration
}

// Totals accumulates results across cycles.
type Totals struct {
	Cycles          int
	Lines           int
	Valid           int
	Duplicates      int
	MissingPrevious int
	DecodeFailures  int
	TableFailures   int
}

// Worker runs polling cycles until cancelled or a fatal error occurs.
type Worker struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	totals Totals
}

// New constructs a Worker.
func New(deps Dependencies, opts Options, logger *slog.Logger) *Worker {
	if opts.DecodeWorkers <= 0 {
		opts.DecodeWorkers = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if deps.Notifier == nil {
		deps.Notifier = device.Noop{}
	}
	return &Worker{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run polls until ctx is cancelled. It returns nil on cancellation and the
// fatal error otherwise.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("watcher started",
		logging.Duration("poll_interval", w.opts.PollInterval),
		logging.Int("decode_workers", w.opts.DecodeWorkers),
		logging.String(logging.FieldEventType, "watcher_started"),
	)
	for {
		if ctx.Err() != nil {
			w.logStopped()
			return nil
		}

		if _, err := w.RunCycle(ctx); err != nil {
			if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				w.logStopped()
				return nil
			}
			logging.ErrorWithContext(w.logger, "watcher cycle failed; stopping", "watcher_fatal",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the error and restart the service"),
			)
			return err
		}

		select {
		case <-ctx.Done():
			w.logStopped()
			return nil
		case <-time.After(w.opts.PollInterval):
		}
	}
}

func (w *Worker) logStopped() {
	totals := w.Totals()
	w.logger.Info("watcher stopped",
		logging.Int("cycles", totals.Cycles),
		logging.Int("lines", totals.Lines),
		logging.Int("valid", totals.Valid),
		logging.Int("duplicates", totals.Duplicates),
		logging.Int("missing_previous", totals.MissingPrevious),
		logging.Int("decode_failures", totals.DecodeFailures),
		logging.Int("table_failures", totals.TableFailures),
		logging.String(logging.FieldEventType, "watcher_stopped"),
	)
}

// Totals returns the cumulative counters.
func (w *Worker) Totals() Totals {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.totals
}

func (w *Worker) addReport(report CycleReport) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.totals.Cycles++
	w.totals.Lines += report.Lines
	w.totals.Valid += report.Count(StatusValid)
	w.totals.Duplicates += report.Count(StatusDuplicate)
	w.totals.MissingPrevious += report.Count(StatusMissingPrevious)
	w.totals.DecodeFailures += report.Count(StatusDecodeFailed)
	w.totals.TableFailures += report.Count(StatusTableFailed)
}
