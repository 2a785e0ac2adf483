package testsupport

import (
	"path/filepath"
	"testing"

	"lotwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Device notifications and the journal are disabled unless an option enables them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InboxFile = filepath.Join(base, "inbox", "SCAN-OUTPUT.txt")
	cfgVal.Paths.TablesDir = filepath.Join(base, "tables")
	cfgVal.Paths.FailureLog = filepath.Join(base, "logs", "failed_scans.log")
	cfgVal.Paths.CatalogFile = filepath.Join(base, "processes.toml")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "journal.db")
	cfgVal.Workflow.PollIntervalMillis = 10
	cfgVal.Device.Enabled = false
	cfgVal.Device.DialTimeoutMillis = 500
	cfgVal.Device.WriteTimeoutMillis = 500
	cfgVal.Journal.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithJournal enables the outcome journal.
func WithJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = true
	}
}

// WithDevicePort enables scanner notifications on the given port.
func WithDevicePort(port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.Enabled = true
		b.cfg.Device.Port = port
	}
}
