package pipeline_test

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"lotwatch/internal/config"
	"lotwatch/internal/device"
	"lotwatch/internal/failures"
	"lotwatch/internal/inbox"
	"lotwatch/internal/journal"
	"lotwatch/internal/logging"
	"lotwatch/internal/pipeline"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
	"lotwatch/internal/testsupport"
	"lotwatch/internal/traceability"
)

type sentCommand struct {
	addr     netip.Addr
	commands []device.Command
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentCommand
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, addr netip.Addr, commands ...device.Command) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentCommand{addr: addr, commands: commands})
	return n.err
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		for _, cmd := range s.commands {
			if cmd.Kind == device.KindAlert {
				out = append(out, cmd.Message)
			}
		}
	}
	return out
}

type memoryJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (j *memoryJournal) Record(_ context.Context, entry journal.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

// countingTables wraps an appender and counts calls per process.
type countingTables struct {
	inner pipeline.TableAppender
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (c *countingTables) Append(ctx context.Context, process string, event scan.Event) (tables.Outcome, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[process]++
	c.mu.Unlock()
	if c.err != nil {
		return tables.Valid, c.err
	}
	return c.inner.Append(ctx, process, event)
}

type harness struct {
	cfg      *config.Config
	store    *tables.Store
	tables   *countingTables
	notifier *recordingNotifier
	journal  *memoryJournal
	worker   *pipeline.Worker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cat := testsupport.WriteCatalog(t, cfg.Paths.CatalogFile)
	codec := scan.NewCodec(cat)
	validator := traceability.New(traceability.Options{
		WindowDays:    cfg.Validation.PreviousWindowDays,
		DeburrProcess: cfg.Validation.DeburrProcess,
	})
	store := tables.NewStore(cfg.Paths.TablesDir, codec, validator, logging.NewNop())
	h := &harness{
		cfg:      cfg,
		store:    store,
		tables:   &countingTables{inner: store},
		notifier: &recordingNotifier{},
		journal:  &memoryJournal{},
	}
	h.worker = pipeline.New(pipeline.Dependencies{
		Inbox:    inbox.New(cfg.Paths.InboxFile),
		Decoder:  codec,
		Tables:   h.tables,
		Notifier: h.notifier,
		Failures: failures.New(cfg.Paths.FailureLog),
		Journal:  h.journal,
	}, pipeline.Options{
		PollInterval:  10 * time.Millisecond,
		DecodeWorkers: 4,
		AlertDuration: 5 * time.Second,
	}, logging.NewNop())
	return h
}

func (h *harness) queue(t *testing.T, lines ...string) {
	t.Helper()
	testsupport.WriteLines(t, h.cfg.Paths.InboxFile, lines...)
}

func (h *harness) table(t *testing.T, process string, rows ...string) {
	t.Helper()
	testsupport.WriteTable(t, h.cfg.Paths.TablesDir, process, rows...)
}

func (h *harness) rows(t *testing.T, process string) []string {
	t.Helper()
	return testsupport.ReadLines(t, h.store.Path(process))
}

func shippingLine(lot string) string {
	return testsupport.Line("03/14/2025-08:30:00", "10.0.0.5", testsupport.Shipping, "12", []string{lot}, "03/13/2025-22:10:05", "1", "AL")
}

func deburrLine(jbk string) string {
	return testsupport.Line("03/14/2025-08:30:00", "10.0.0.7", testsupport.Deburr, "12", []string{jbk}, "03/13/2025-22:10:05", "2", "BO")
}

func inboxFor(h *harness) *inbox.Reader {
	return inbox.New(h.cfg.Paths.InboxFile)
}
