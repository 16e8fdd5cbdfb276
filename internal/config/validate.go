package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Validate performs structural validation only; it does not touch the
// filesystem. Used both at startup and as the hot-reload gate.
func Validate(ctx context.Context, cfg *Config) error {
	_ = ctx
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if _, err := ParseDurationField("feeds.refresh", cfg.Feeds.Refresh); err != nil {
		return err
	}
	if _, err := ParseDurationField("reminders.lead_time", cfg.Reminders.LeadTime); err != nil {
		return err
	}
	if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
		return err
	}

	if tz := strings.TrimSpace(cfg.Reminders.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("reminders.timezone: %w", err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Delivery.Driver)) {
	case "", "log":
	case "telegram":
		if cfg.Delivery.Telegram == nil || strings.TrimSpace(cfg.Delivery.Telegram.Token) == "" {
			return fmt.Errorf("delivery.telegram.token is required for the telegram driver")
		}
		if cfg.Delivery.Telegram.ChatID == 0 {
			return fmt.Errorf("delivery.telegram.chat_id is required for the telegram driver")
		}
	default:
		return fmt.Errorf("delivery.driver: unknown driver %q", cfg.Delivery.Driver)
	}

	if strings.TrimSpace(cfg.Feeds.DataDir) == "" {
		return fmt.Errorf("feeds.data_dir is required")
	}
	return nil
}
