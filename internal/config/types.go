package config

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage,omitempty"`
	Feeds     FeedsConfig     `json:"feeds"`
	Reminders RemindersConfig `json:"reminders"`
	Delivery  DeliveryConfig  `json:"delivery"`
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

// StorageConfig controls reminder-registry persistence.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./classbell_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// FeedsConfig points at the schedule/preference data directory.
type FeedsConfig struct {
	DataDir string `json:"data_dir"`
	// Refresh is a Go duration string (e.g. "1h"). "0s" disables periodic refresh.
	Refresh string `json:"refresh,omitempty"`
}

// RemindersConfig controls the scheduling engine.
//
// All durations are Go duration strings (e.g. "5m").
type RemindersConfig struct {
	ProjectionDays int    `json:"projection_days,omitempty"` // default 10
	ShallowDays    int    `json:"shallow_days,omitempty"`    // default 2
	LeadTime       string `json:"lead_time,omitempty"`       // default "5m"
	SweepSpec      string `json:"sweep_spec,omitempty"`      // cron spec, default "@hourly"
	Timezone       string `json:"timezone,omitempty"`        // IANA TZ
}

// DeliveryConfig selects and tunes the reminder sink.
//
// Driver values: "log" (default) or "telegram".
type DeliveryConfig struct {
	Driver     string                  `json:"driver,omitempty"`
	Workers    int                     `json:"workers,omitempty"`
	RatePerSec int                     `json:"rate_per_sec,omitempty"`
	Telegram   *DeliveryTelegramConfig `json:"telegram,omitempty"`
}

type DeliveryTelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}
