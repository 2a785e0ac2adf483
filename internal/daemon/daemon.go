package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"lotwatch/internal/catalog"
	"lotwatch/internal/config"
	"lotwatch/internal/device"
	"lotwatch/internal/failures"
	"lotwatch/internal/inbox"
	"lotwatch/internal/journal"
	"lotwatch/internal/logging"
	"lotwatch/internal/pipeline"
	"lotwatch/internal/scan"
	"lotwatch/internal/tables"
	"lotwatch/internal/traceability"
)

// ErrAlreadyRunning reports that another instance holds the daemon lock.
var ErrAlreadyRunning = errors.New("another lotwatch instance is already running")

// Daemon owns the pipeline worker and the single-instance lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *catalog.Static
	tables  *tables.Store
	journal *journal.Store
	worker  *pipeline.Worker

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Totals       pipeline.Totals
	LockFilePath string
	CatalogPath  string
	Processes    int
}

// New loads the catalog and builds every collaborator of the pipeline.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.Paths.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	codec := scan.NewCodec(cat)
	validator := traceability.New(traceability.Options{
		WindowDays:    cfg.Validation.PreviousWindowDays,
		DeburrProcess: cfg.Validation.DeburrProcess,
	})
	store := tables.NewStore(cfg.Paths.TablesDir, codec, validator, logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		catalog:  cat,
		tables:   store,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}

	deps := pipeline.Dependencies{
		Inbox:    inbox.New(cfg.Paths.InboxFile),
		Decoder:  codec,
		Tables:   store,
		Notifier: device.NewNotifier(cfg),
		Failures: failures.New(cfg.Paths.FailureLog),
	}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Paths.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		d.journal = j
		deps.Journal = j
	}

	d.worker = pipeline.New(deps, pipeline.Options{
		PollInterval:  cfg.PollInterval(),
		DecodeWorkers: cfg.Workflow.DecodeWorkers,
		AlertDuration: cfg.AlertDuration(),
	}, logger)
	return d, nil
}

// Run acquires the daemon lock and polls until ctx is cancelled or the
// pipeline hits a fatal error.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	d.running.Store(true)
	defer func() {
		d.running.Store(false)
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	d.logger.Info("lotwatch daemon started",
		logging.String("lock", d.lockPath),
		logging.String("inbox", d.cfg.Paths.InboxFile),
		logging.String("tables_dir", d.cfg.Paths.TablesDir),
		logging.Int("processes", len(d.catalog.Processes())),
		logging.Bool("device_feedback", d.cfg.Device.Enabled),
		logging.Bool("journal", d.journal != nil),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	d.checkCatalog()

	err = d.worker.Run(ctx)
	d.logger.Info("lotwatch daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return err
}

// checkCatalog warns about catalog entries the pipeline will reject at runtime.
func (d *Daemon) checkCatalog() {
	summaries, err := d.tables.Summarize(d.catalog.Names())
	if err != nil {
		d.logger.Warn("table summary failed", logging.Error(err))
		return
	}
	for _, s := range summaries {
		if s.Exists {
			continue
		}
		logging.WarnWithContext(d.logger, "process table missing", "table_missing",
			logging.String(logging.FieldProcess, s.Process),
			logging.String("path", s.Path),
			logging.String(logging.FieldImpact, "scans for this process will be written to the failure log"),
			logging.String(logging.FieldErrorHint, "run `lotwatch tables init` to create empty tables"),
		)
	}

	deburr := d.cfg.Validation.DeburrProcess
	if deburr == "" {
		return
	}
	if _, err := d.catalog.GetProcess(deburr); err != nil {
		logging.WarnWithContext(d.logger, "deburr process not in catalog", "deburr_process_unknown",
			logging.String(logging.FieldProcess, deburr),
			logging.String(logging.FieldImpact, "machining scans compare lot serials instead of deburr JBK numbers"),
			logging.String(logging.FieldErrorHint, "set validation.deburr_process to a catalog process name"),
		)
	}
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Totals:       d.worker.Totals(),
		LockFilePath: d.lockPath,
		CatalogPath:  d.cfg.Paths.CatalogFile,
		Processes:    len(d.catalog.Processes()),
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	if d.journal != nil {
		return d.journal.Close()
	}
	return nil
}
