package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeDevice()
	c.normalizeValidation()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.inbox_file", &c.Paths.InboxFile, defaultInboxFile},
		{"paths.tables_dir", &c.Paths.TablesDir, defaultTablesDir},
		{"paths.failure_log", &c.Paths.FailureLog, defaultFailureLog},
		{"paths.catalog_file", &c.Paths.CatalogFile, defaultCatalogFile},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.journal_path", &c.Paths.JournalPath, defaultJournalPath},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.DecodeWorkers <= 0 {
		c.Workflow.DecodeWorkers = defaultDecodeWorkers
	}
}

func (c *Config) normalizeDevice() {
	if c.Device.DialTimeoutMillis <= 0 {
		c.Device.DialTimeoutMillis = defaultDialTimeoutMillis
	}
	if c.Device.WriteTimeoutMillis <= 0 {
		c.Device.WriteTimeoutMillis = defaultWriteTimeoutMillis
	}
}

func (c *Config) normalizeValidation() {
	c.Validation.DeburrProcess = strings.TrimSpace(c.Validation.DeburrProcess)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
