package config

const (
	defaultInboxFile          = "~/.local/share/lotwatch/SCAN-OUTPUT.txt"
	defaultTablesDir          = "~/.local/share/lotwatch/tables"
	defaultFailureLog         = "~/.local/share/lotwatch/logs/failed_scans.log"
	defaultCatalogFile        = "~/.config/lotwatch/processes.toml"
	defaultLogDir             = "~/.local/share/lotwatch/logs"
	defaultJournalPath        = "~/.local/share/lotwatch/journal.db"
	defaultPollIntervalMillis = 500
	defaultDecodeWorkers      = 8
	defaultDevicePort         = 23
	defaultDialTimeoutMillis  = 2000
	defaultWriteTimeoutMillis = 2000
	defaultAlertSeconds       = 5
	defaultPreviousWindowDays = 60
	defaultDeburrProcess      = "4470-DC-Deburr"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxFile:   defaultInboxFile,
			TablesDir:   defaultTablesDir,
			FailureLog:  defaultFailureLog,
			CatalogFile: defaultCatalogFile,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Workflow: Workflow{
			PollIntervalMillis: defaultPollIntervalMillis,
			DecodeWorkers:      defaultDecodeWorkers,
		},
		Device: Device{
			Enabled:            true,
			Port:               defaultDevicePort,
			DialTimeoutMillis:  defaultDialTimeoutMillis,
			WriteTimeoutMillis: defaultWriteTimeoutMillis,
			AlertSeconds:       defaultAlertSeconds,
		},
		Validation: Validation{
			PreviousWindowDays: defaultPreviousWindowDays,
			DeburrProcess:      defaultDeburrProcess,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
