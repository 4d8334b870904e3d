package config

// Config is the full on-disk configuration of the reminder server.
//
// All durations are Go duration strings (e.g. "500ms", "2s", "1m").
type Config struct {
	Server   ServerConfig   `json:"server"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Reminder ReminderConfig `json:"reminder"`
	Pprof    PprofConfig    `json:"pprof,omitempty"`
}

type ServerConfig struct {
	// Addr is the listen address for the WebSocket endpoint, e.g. ":8080".
	Addr string `json:"addr"`
	// Path is the WebSocket endpoint path. Default: "/ws".
	Path string `json:"path,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig points at the notes database the reminder engine pulls
// rule text from. The server never writes to it.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ReminderConfig controls the notification scheduler.
//
// Defaults (when fields are omitted/zero):
//   - interval: "1s"
//   - dedup_cache_size: 100
//   - rate_per_sec: 10
//   - max_live_records: 1000
type ReminderConfig struct {
	Enabled        bool   `json:"enabled"`
	Interval       string `json:"interval,omitempty"`
	DedupCacheSize int    `json:"dedup_cache_size,omitempty"`
	RatePerSec     int    `json:"rate_per_sec,omitempty"`
	MaxLiveRecords int    `json:"max_live_records,omitempty"`
}

// PprofConfig controls the optional pprof HTTP server.
//
// Security note: prefer binding to localhost (e.g. "127.0.0.1:6060").
type PprofConfig struct {
	Enabled              bool   `json:"enabled"`
	Address              string `json:"address,omitempty"`
	BlockProfileRate     int    `json:"block_profile_rate,omitempty"`
	MutexProfileFraction int    `json:"mutex_profile_fraction,omitempty"`
}
