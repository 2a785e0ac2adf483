package pipeline_test

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"lotwatch/internal/device"
	"lotwatch/internal/pipeline"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
	"lotwatch/internal/testsupport"
)

func statuses(report pipeline.CycleReport) []pipeline.Status {
	out := make([]pipeline.Status, 0, len(report.Results))
	for _, r := range report.Results {
		out = append(out, r.Status)
	}
	return out
}

func TestCycleValidScanWithoutPreviousProcess(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Shipping)
	h.queue(t, shippingLine("000000100"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if got := statuses(report); len(got) != 1 || got[0] != pipeline.StatusValid {
		t.Fatalf("unexpected statuses: %v", got)
	}
	rows := h.rows(t, testsupport.Shipping)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	want := testsupport.Row("03/14/2025-08:30:00", "10.0.0.5", testsupport.Shipping, "12", []string{"000000100"}, "03/13/2025-22:10:05", "1", "AL")
	if rows[0] != want {
		t.Fatalf("stored row %q, want %q", rows[0], want)
	}
	if len(h.notifier.messages()) != 0 {
		t.Fatalf("expected no notifications, got %v", h.notifier.messages())
	}
	if len(h.journal.entries) != 1 || h.journal.entries[0].Outcome != "valid" || h.journal.entries[0].CycleID != report.CycleID {
		t.Fatalf("unexpected journal entries: %+v", h.journal.entries)
	}

	info, err := os.Stat(h.cfg.Paths.InboxFile)
	if err != nil {
		t.Fatalf("stat inbox: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected drained inbox, got %d bytes", info.Size())
	}
}

func TestCycleMissingPreviousNotifiesScanner(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Casting)
	h.table(t, testsupport.Deburr)
	h.queue(t, deburrLine("042"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	if got := statuses(report); len(got) != 1 || got[0] != pipeline.StatusMissingPrevious {
		t.Fatalf("unexpected statuses: %v", got)
	}
	if rows := h.rows(t, testsupport.Deburr); len(rows) != 0 {
		t.Fatalf("expected no deburr rows, got %q", rows)
	}
	msgs := h.notifier.messages()
	if len(msgs) != 1 || msgs[0] != "Not scanned at previous process: "+testsupport.Casting {
		t.Fatalf("unexpected notifications: %v", msgs)
	}
	sent := h.notifier.sent[0]
	if sent.addr.String() != "10.0.0.7" || sent.commands[0].Kind != device.KindValidationFailed {
		t.Fatalf("unexpected command delivery: %+v", sent)
	}
}

func TestCycleIdenticalLinesYieldValidThenDuplicate(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Shipping)
	h.queue(t, shippingLine("000000100"), shippingLine("000000100"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	got := statuses(report)
	if len(got) != 2 || got[0] != pipeline.StatusValid || got[1] != pipeline.StatusDuplicate {
		t.Fatalf("unexpected statuses: %v", got)
	}
	if rows := h.rows(t, testsupport.Shipping); len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if msgs := h.notifier.messages(); len(msgs) != 1 || msgs[0] != device.DuplicateMessage {
		t.Fatalf("unexpected notifications: %v", msgs)
	}
}

func TestCycleRoutesInInboxOrderAcrossProcesses(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Casting)
	h.table(t, testsupport.Deburr)
	casting := testsupport.Line("03/12/2025-08:00:00", "10.0.0.2", testsupport.Casting, "12", []string{"042", "015"}, "03/12/2025-07:00:00", "1", "AL")
	// The deburr scan depends on the casting row written earlier in the same cycle.
	h.queue(t, casting, deburrLine("042"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	got := statuses(report)
	if len(got) != 2 || got[0] != pipeline.StatusValid || got[1] != pipeline.StatusValid {
		t.Fatalf("unexpected statuses: %v", got)
	}
}

func TestCycleDecodeFailureIsRetiredAndBatchContinues(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Shipping)
	bad := testsupport.Line("03/14/2025-08:30:00", "10.0.0.5", "9999-Unknown", "12", []string{"000000001"}, "03/13/2025-22:10:05", "1", "AL")
	h.queue(t, bad, "not,a,scan", shippingLine("000000100"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	got := statuses(report)
	if len(got) != 3 || got[0] != pipeline.StatusDecodeFailed || got[1] != pipeline.StatusDecodeFailed || got[2] != pipeline.StatusValid {
		t.Fatalf("unexpected statuses: %v", got)
	}

	data, err := os.ReadFile(h.cfg.Paths.FailureLog)
	if err != nil {
		t.Fatalf("read failure log: %v", err)
	}
	log := string(data)
	if !strings.Contains(log, "Could not process '"+bad+"'.") || !strings.Contains(log, "Type: SchemaLookupError") {
		t.Fatalf("expected schema failure in log:\n%s", log)
	}
	if !strings.Contains(log, "Type: FieldFormatError") {
		t.Fatalf("expected format failure in log:\n%s", log)
	}
}

func TestCycleRetiresOversizedLineAndKeepsRouting(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Shipping)
	long := shippingLine("000000100") + strings.Repeat("x", 2<<20)
	h.queue(t, long, shippingLine("000000101"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	got := statuses(report)
	if len(got) != 2 || got[0] != pipeline.StatusDecodeFailed || got[1] != pipeline.StatusValid {
		t.Fatalf("unexpected statuses: %v", got)
	}
	var ffe *scan.FieldFormatError
	if !errors.As(report.Results[0].Err, &ffe) || ffe.Field != "record" {
		t.Fatalf("expected record format error, got %v", report.Results[0].Err)
	}

	data, err := os.ReadFile(h.cfg.Paths.FailureLog)
	if err != nil {
		t.Fatalf("read failure log: %v", err)
	}
	if !strings.Contains(string(data), "Type: FieldFormatError") {
		t.Fatalf("expected oversized line in failure log")
	}
	info, err := os.Stat(h.cfg.Paths.InboxFile)
	if err != nil {
		t.Fatalf("stat inbox: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("expected drained inbox, got %d bytes", info.Size())
	}
}

func TestCycleMissingTableSuspendsOnlyThatProcess(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Casting)
	casting := testsupport.Line("03/12/2025-08:00:00", "10.0.0.2", testsupport.Casting, "12", []string{"042", "015"}, "03/12/2025-07:00:00", "1", "AL")
	h.queue(t, shippingLine("000000100"), casting, shippingLine("000000101"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	got := statuses(report)
	if len(got) != 3 || got[0] != pipeline.StatusTableFailed || got[1] != pipeline.StatusValid || got[2] != pipeline.StatusTableFailed {
		t.Fatalf("unexpected statuses: %v", got)
	}
	if !errors.Is(report.Results[2].Err, tables.ErrTableNotFound) {
		t.Fatalf("expected table not found, got %v", report.Results[2].Err)
	}
	if h.tables.calls[testsupport.Shipping] != 1 {
		t.Fatalf("expected a single append attempt for the failed table, got %d", h.tables.calls[testsupport.Shipping])
	}
	data, err := os.ReadFile(h.cfg.Paths.FailureLog)
	if err != nil {
		t.Fatalf("read failure log: %v", err)
	}
	if strings.Count(string(data), "Type: TableNotFound") != 2 {
		t.Fatalf("expected both shipping lines retired:\n%s", data)
	}
}

func TestCycleNotificationFailureDoesNotAbort(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = &device.NotificationError{Address: "10.0.0.5:23", Err: errors.New("connection refused")}
	h.table(t, testsupport.Shipping)
	h.queue(t, shippingLine("000000100"), shippingLine("000000100"), shippingLine("000000101"))

	report, err := h.worker.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	got := statuses(report)
	if len(got) != 3 || got[1] != pipeline.StatusDuplicate || got[2] != pipeline.StatusValid {
		t.Fatalf("unexpected statuses: %v", got)
	}
}

func TestCycleUnclassifiedErrorIsFatal(t *testing.T) {
	h := newHarness(t)
	h.tables.err = errors.New("disk on fire")
	h.table(t, testsupport.Shipping)
	h.queue(t, shippingLine("000000100"), shippingLine("000000101"))

	_, err := h.worker.RunCycle(context.Background())
	if err == nil || pipeline.Classify(err) != pipeline.ClassFatal {
		t.Fatalf("expected fatal error, got %v", err)
	}
	data, readErr := os.ReadFile(h.cfg.Paths.FailureLog)
	if readErr != nil {
		t.Fatalf("read failure log: %v", readErr)
	}
	if strings.Count(string(data), "Type: CycleAborted") != 2 {
		t.Fatalf("expected both claimed lines retired:\n%s", data)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	h := newHarness(t)
	h.table(t, testsupport.Shipping)
	h.queue(t, shippingLine("000000100"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.worker.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for h.worker.Totals().Valid == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	if totals := h.worker.Totals(); totals.Valid != 1 || totals.Cycles == 0 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestRunReturnsFatalError(t *testing.T) {
	h := newHarness(t)
	h.tables.err = errors.New("disk on fire")
	h.table(t, testsupport.Shipping)
	h.queue(t, shippingLine("000000100"))

	done := make(chan error, 1)
	go func() { done <- h.worker.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "disk on fire") {
			t.Fatalf("expected fatal error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on fatal error")
	}
}

func TestCycleDeliversAlertsOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- string(data)
	}()

	h := newHarness(t)
	notifier := &device.TCPNotifier{Port: ln.Addr().(*net.TCPAddr).Port, DialTimeout: time.Second, WriteTimeout: time.Second}
	worker := pipeline.New(pipeline.Dependencies{
		Inbox:    inboxFor(h),
		Decoder:  scan.NewCodec(testsupport.Catalog(t)),
		Tables:   h.store,
		Notifier: notifier,
	}, pipeline.Options{DecodeWorkers: 2, AlertDuration: 3 * time.Second}, nil)

	h.table(t, testsupport.Casting)
	h.table(t, testsupport.Deburr)
	h.queue(t, testsupport.Line("03/14/2025-08:30:00", "127.0.0.1", testsupport.Deburr, "12", []string{"042"}, "03/13/2025-22:10:05", "2", "BO"))

	if _, err := worker.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}
	select {
	case got := <-received:
		want := "||>VALIDATION.FAIL\r\n||>UI.ALERT 3 \"Not scanned at previous process: " + testsupport.Casting + "\"\r\n"
		if got != want {
			t.Fatalf("scanner received %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scanner received nothing")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want pipeline.ErrorClass
	}{
		{&scan.FieldFormatError{Field: "Shift"}, pipeline.ClassRecord},
		{&scan.SchemaLookupError{Kind: "Process"}, pipeline.ClassRecord},
		{&tables.StorageError{Process: "p", Op: "load", Err: tables.ErrTableNotFound}, pipeline.ClassTable},
		{&device.NotificationError{Address: "x"}, pipeline.ClassNotification},
		{errors.New("boom"), pipeline.ClassFatal},
	}
	for _, tt := range tests {
		if got := pipeline.Classify(tt.err); got != tt.want {
			t.Fatalf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
