package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lotwatch/internal/device"
	"lotwatch/internal/journal"
	"lotwatch/internal/logging"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
)

// Status is the final disposition of one inbox line.
type Status int

const (
	StatusValid Status = iota
	StatusDuplicate
	StatusMissingPrevious
	StatusDecodeFailed
	StatusTableFailed
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return tables.Valid.String()
	case StatusDuplicate:
		return tables.DuplicateScan.String()
	case StatusMissingPrevious:
		return tables.MissingPrevious.String()
	case StatusDecodeFailed:
		return "decode_failed"
	case StatusTableFailed:
		return "table_failed"
	default:
		return "unknown"
	}
}

func statusFor(outcome tables.Outcome) Status {
	switch outcome {
	case tables.DuplicateScan:
		return StatusDuplicate
	case tables.MissingPrevious:
		return StatusMissingPrevious
	default:
		return StatusValid
	}
}

// Result describes how one line was handled.
type Result struct {
	Line    string
	Process string
	Status  Status
	Err     error
}

// CycleReport summarizes one polling cycle.
type CycleReport struct {
	CycleID string
	Lines   int
	Results []Result
}

// Count returns the number of results with status s.
func (r CycleReport) Count(s Status) int {
	n := 0
	for _, result := range r.Results {
		if result.Status == s {
			n++
		}
	}
	return n
}

type decoded struct {
	event scan.Event
	err   error
}

// RunCycle performs one drain, decode, and route pass. Once lines are
// drained the remaining work ignores cancellation so claimed lines are
// always routed or retired.
func (w *Worker) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{CycleID: uuid.NewString()}
	ctx = logging.WithCycleID(ctx, report.CycleID)

	lines, err := w.deps.Inbox.Drain(ctx)
	if err != nil {
		return report, fmt.Errorf("drain inbox: %w", err)
	}
	report.Lines = len(lines)
	if len(lines) == 0 {
		w.addReport(report)
		return report, nil
	}

	work := context.WithoutCancel(ctx)
	logger := logging.WithContext(work, w.logger)
	logger.Debug("inbox drained", logging.Int("lines", len(lines)))

	results := w.decodeAll(lines)

	failedTables := make(map[string]error)
	for idx, line := range lines {
		res := results[idx]
		if res.err != nil {
			if Classify(res.err) != ClassRecord {
				w.abandon(logger, lines[idx:], res.err)
				w.addReport(report)
				return report, fmt.Errorf("decode line: %w", res.err)
			}
			report.Results = append(report.Results, w.rejectLine(work, logger, report.CycleID, line, res.err))
			continue
		}

		result, err := w.route(work, report.CycleID, line, res.event, failedTables)
		if err != nil {
			w.abandon(logger, lines[idx:], err)
			w.addReport(report)
			return report, err
		}
		report.Results = append(report.Results, result)
	}

	w.addReport(report)
	logger.Info("cycle complete",
		logging.Int("lines", report.Lines),
		logging.Int("valid", report.Count(StatusValid)),
		logging.Int("rejected", report.Count(StatusDuplicate)+report.Count(StatusMissingPrevious)),
		logging.Int("failed", report.Count(StatusDecodeFailed)+report.Count(StatusTableFailed)),
		logging.String(logging.FieldEventType, "cycle_complete"),
	)
	return report, nil
}

// decodeAll decodes lines concurrently and returns results in input order.
func (w *Worker) decodeAll(lines []string) []decoded {
	results := make([]decoded, len(lines))
	var g errgroup.Group
	g.SetLimit(w.opts.DecodeWorkers)
	for idx, line := range lines {
		g.Go(func() error {
			event, err := w.deps.Decoder.Decode(line)
			results[idx] = decoded{event: event, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (w *Worker) rejectLine(ctx context.Context, logger *slog.Logger, cycleID, line string, cause error) Result {
	logging.WarnWithContext(logger, "scan line could not be decoded", "scan_decode_failed",
		logging.String("raw", preview(line)),
		logging.String("error_type", ErrorType(cause)),
		logging.Error(cause),
		logging.String(logging.FieldImpact, "line dropped and written to the failure log"),
		logging.String(logging.FieldErrorHint, "check the scanner configuration and process catalog"),
	)
	w.retire(logger, line, ErrorType(cause), cause)
	w.journal(ctx, logger, journal.Entry{
		CycleID: cycleID,
		Outcome: StatusDecodeFailed.String(),
		Detail:  cause.Error(),
	})
	return Result{Line: line, Status: StatusDecodeFailed, Err: cause}
}

// route appends one event and dispatches its outcome. Only unclassified
// errors are returned.
func (w *Worker) route(ctx context.Context, cycleID, line string, event scan.Event, failedTables map[string]error) (Result, error) {
	process := event.Process.Name
	ctx = logging.WithProcess(ctx, process)
	logger := logging.WithContext(ctx, w.logger).With(
		logging.String("part", event.Part.Number),
		logging.String("serial", event.SerialValue()),
		logging.String("device", event.Address.String()),
	)
	entry := journal.Entry{
		CycleID: cycleID,
		Process: process,
		Part:    event.Part.Number,
		Serial:  event.SerialValue(),
		Device:  event.Address.String(),
	}

	if cause, failed := failedTables[process]; failed {
		return w.tableFailure(ctx, logger, entry, line, cause), nil
	}

	outcome, err := w.deps.Tables.Append(ctx, process, event)
	if err != nil {
		if Classify(err) != ClassTable {
			return Result{}, fmt.Errorf("append %s: %w", process, err)
		}
		failedTables[process] = err
		logging.ErrorWithContext(logger, "table unavailable; routing suspended for this cycle", "table_unavailable",
			logging.String("error_type", ErrorType(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the tables directory and file permissions"),
		)
		return w.tableFailure(ctx, logger, entry, line, err), nil
	}

	status := statusFor(outcome)
	entry.Outcome = status.String()
	switch outcome {
	case tables.Valid:
		logger.Info("scan recorded", logging.String(logging.FieldEventType, "scan_recorded"))
	case tables.DuplicateScan:
		entry.Detail = device.DuplicateMessage
		logging.WarnWithContext(logger, "duplicate scan rejected", "scan_duplicate",
			logging.Alert("scan_rejected"),
			logging.String(logging.FieldImpact, "scan not recorded; operator alerted"),
			logging.String(logging.FieldErrorHint, "label was already scanned at this process"),
		)
		w.notify(ctx, logger, event, device.DuplicateMessage)
	case tables.MissingPrevious:
		previous, _ := event.Process.PreviousProcess()
		entry.Detail = device.MissingPreviousMessage(previous)
		logging.WarnWithContext(logger, "scan missing at previous process", "scan_missing_previous",
			logging.Alert("scan_rejected"),
			logging.String("previous_process", previous),
			logging.String(logging.FieldImpact, "scan not recorded; operator alerted"),
			logging.String(logging.FieldErrorHint, "scan the label at the previous process first"),
		)
		w.notify(ctx, logger, event, entry.Detail)
	}
	w.journal(ctx, logger, entry)
	return Result{Line: line, Process: process, Status: status}, nil
}

func (w *Worker) tableFailure(ctx context.Context, logger *slog.Logger, entry journal.Entry, line string, cause error) Result {
	w.retire(logger, line, ErrorType(cause), cause)
	entry.Outcome = StatusTableFailed.String()
	entry.Detail = cause.Error()
	w.journal(ctx, logger, entry)
	return Result{Line: line, Process: entry.Process, Status: StatusTableFailed, Err: cause}
}

func (w *Worker) notify(ctx context.Context, logger *slog.Logger, event scan.Event, message string) {
	if err := device.Reject(ctx, w.deps.Notifier, event.Address, w.opts.AlertDuration, message); err != nil {
		logging.WarnWithContext(logger, "scanner notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator was not alerted on the scanner"),
			logging.String(logging.FieldErrorHint, "check scanner power and network reachability"),
		)
	}
}

func (w *Worker) retire(logger *slog.Logger, line, errType string, cause error) {
	if w.deps.Failures == nil {
		return
	}
	if err := w.deps.Failures.Record(line, errType, cause); err != nil {
		logging.WarnWithContext(logger, "failure log write failed", "failure_log_failed",
			logging.String("raw", preview(line)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "failed line exists only in this log"),
			logging.String(logging.FieldErrorHint, "check failure_log path permissions"),
		)
	}
}

// abandon retires lines that a fatal error left unrouted.
func (w *Worker) abandon(logger *slog.Logger, lines []string, cause error) {
	for _, line := range lines {
		w.retire(logger, line, "CycleAborted", cause)
	}
}

func (w *Worker) journal(ctx context.Context, logger *slog.Logger, entry journal.Entry) {
	if w.deps.Journal == nil {
		return
	}
	entry.RecordedAt = time.Now()
	if err := w.deps.Journal.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "outcome missing from history"),
			logging.String(logging.FieldErrorHint, "check journal_path permissions"),
		)
	}
}

const previewBytes = 256

// preview clips a raw line for log output. The failure log keeps it whole.
func preview(line string) string {
	if len(line) <= previewBytes {
		return line
	}
	return fmt.Sprintf("%s... (%d bytes)", line[:previewBytes], len(line))
}
