package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	InboxFile   string `toml:"inbox_file"`
	TablesDir   string `toml:"tables_dir"`
	FailureLog  string `toml:"failure_log"`
	CatalogFile string `toml:"catalog_file"`
	LogDir      string `toml:"log_dir"`
	JournalPath string `toml:"journal_path"`
}

// Workflow contains configuration for the polling loop.
type Workflow struct {
	PollIntervalMillis int `toml:"poll_interval_ms"`
	DecodeWorkers      int `toml:"decode_workers"`
}

// Device contains configuration for scanner feedback over the network.
type Device struct {
	Enabled            bool `toml:"enabled"`
	Port               int  `toml:"port"`
	DialTimeoutMillis  int  `toml:"dial_timeout_ms"`
	WriteTimeoutMillis int  `toml:"write_timeout_ms"`
	AlertSeconds       int  `toml:"alert_seconds"`
}

// Validation contains the traceability rules shared by every process.
type Validation struct {
	PreviousWindowDays int    `toml:"previous_window_days"`
	DeburrProcess      string `toml:"deburr_process"`
}

// Journal contains configuration for the outcome ledger.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lotwatch.
//
// Configuration sections by subsystem:
//   - Paths: inbox, tables, failure log, catalog, logs, journal
//   - Workflow: polling interval and decode fan-out
//   - Device: scanner alert transport
//   - Validation: previous-process window and the deburr boundary
//   - Journal: outcome ledger toggle
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Workflow   Workflow   `toml:"workflow"`
	Device     Device     `toml:"device"`
	Validation Validation `toml:"validation"`
	Journal    Journal    `toml:"journal"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lotwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lotwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
// The inbox and catalog belong to other systems and are never created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.TablesDir, c.Paths.LogDir, filepath.Dir(c.Paths.FailureLog)}
	if c.Journal.Enabled {
		dirs = append(dirs, filepath.Dir(c.Paths.JournalPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PollInterval returns the delay between polling cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.PollIntervalMillis) * time.Millisecond
}

// DialTimeout returns the scanner connect timeout.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Device.DialTimeoutMillis) * time.Millisecond
}

// WriteTimeout returns the scanner send timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Device.WriteTimeoutMillis) * time.Millisecond
}

// AlertDuration returns how long scanners display an alert.
func (c *Config) AlertDuration() time.Duration {
	return time.Duration(c.Device.AlertSeconds) * time.Second
}

// PreviousWindow returns the maximum age of a previous-process scan.
func (c *Config) PreviousWindow() time.Duration {
	return time.Duration(c.Validation.PreviousWindowDays) * 24 * time.Hour
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "lotwatch.lock")
}

// LogFilePath returns the daemon log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "lotwatch.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
