package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InboxFile == "" {
		return errors.New("paths.inbox_file must be set")
	}
	if c.Paths.TablesDir == "" {
		return errors.New("paths.tables_dir must be set")
	}
	if c.Paths.CatalogFile == "" {
		return errors.New("paths.catalog_file must be set")
	}
	if filepath.Dir(c.Paths.InboxFile) == c.Paths.TablesDir {
		return errors.New("paths.inbox_file must not live inside paths.tables_dir")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollIntervalMillis <= 0 {
		return errors.New("workflow.poll_interval_ms must be positive")
	}
	if c.Workflow.PollIntervalMillis >= 1000 {
		return errors.New("workflow.poll_interval_ms must be below 1000 (sub-second polling)")
	}
	return ensurePositiveMap(map[string]int{
		"workflow.decode_workers": c.Workflow.DecodeWorkers,
	})
}

func (c *Config) validateDevice() error {
	if !c.Device.Enabled {
		return nil
	}
	if c.Device.Port <= 0 || c.Device.Port > 65535 {
		return fmt.Errorf("device.port must be between 1 and 65535, got %d", c.Device.Port)
	}
	return ensurePositiveMap(map[string]int{
		"device.dial_timeout_ms":  c.Device.DialTimeoutMillis,
		"device.write_timeout_ms": c.Device.WriteTimeoutMillis,
		"device.alert_seconds":    c.Device.AlertSeconds,
	})
}

func (c *Config) validateValidation() error {
	if c.Validation.PreviousWindowDays <= 0 {
		return errors.New("validation.previous_window_days must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
