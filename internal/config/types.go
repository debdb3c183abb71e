package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "10m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Source   SourceConfig   `json:"source"`
	Filter   FilterConfig   `json:"filter"`
	Poll     PollConfig     `json:"poll"`
	Notifier NotifierConfig `json:"notifier"`
	Storage  StorageConfig  `json:"storage"`
	HTTP     HTTPConfig     `json:"http,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is a numeric chat id or an "@channel" username.
	ChatID   string `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	// Timeout bounds a single Bot API request (default "15s").
	Timeout string `json:"timeout,omitempty"`
	// Offline skips the startup getMe call.
	Offline bool `json:"offline,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram forwards warn+ log lines to an operator chat.
// It should not be the same chat that receives appointment alerts.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     string `json:"chat_id"`
	ThreadID   int    `json:"thread_id,omitempty"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// SourceConfig describes the listing API.
//
// Defaults:
//   - endpoint: DefaultEndpoint
//   - timeout: "30s"
type SourceConfig struct {
	Endpoint  string `json:"endpoint"`
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// FilterConfig holds the interest criteria. Empty lists fall back to the defaults.
type FilterConfig struct {
	SourceCountry    string   `json:"source_country"`
	MissionCountries []string `json:"mission_countries"`
	Keywords         []string `json:"keywords"`
}

// PollConfig controls how often a cycle runs.
//
// Schedule accepts a duration ("10m"), HH:MM ("00:10") or a cron
// expression ("*/10 * * * *", "@every 10m"). IntervalSeconds is used
// when Schedule is empty.
type PollConfig struct {
	Schedule        string `json:"schedule,omitempty"`
	IntervalSeconds int    `json:"interval_seconds,omitempty"`
	// FetchOnStart runs the first cycle immediately (default true).
	FetchOnStart *bool `json:"fetch_on_start,omitempty"`
}

// NotifierConfig controls delivery of alert messages.
//
// Defaults (when fields are omitted):
//   - retry_max: 5 (0 disables retries)
//   - retry_delay: "10s"
//   - rate_per_sec: 1
//   - send_timeout: "30s"
type NotifierConfig struct {
	RetryMax       *int   `json:"retry_max,omitempty"`
	RetryDelay     string `json:"retry_delay,omitempty"`
	RatePerSec     int    `json:"rate_per_sec,omitempty"`
	SendTimeout    string `json:"send_timeout,omitempty"`
	DisablePreview bool   `json:"disable_preview,omitempty"`
}

// StorageConfig selects the last-message store.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data/previous_message.txt" }
type StorageConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path,omitempty"` // file, sqlite
	DSN    string `json:"dsn,omitempty"`  // postgres
	Addr   string `json:"addr,omitempty"` // redis
	// Password is the redis password (do not log).
	Password    string `json:"password,omitempty"`
	DB          int    `json:"db,omitempty"`
	Key         string `json:"key,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite
}

// HTTPConfig controls the optional status server (/healthz, /status, /metrics).
type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9105"
	// Pprof mounts /debug/pprof. Keep the server on loopback when enabled.
	Pprof bool `json:"pprof,omitempty"`
}
