package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"logging": {"level": "debug", "console": true},
		"feeds": {"data_dir": "./data", "refresh": "1h"},
		"reminders": {"projection_days": 7, "lead_time": "10m", "timezone": "America/New_York"},
		"delivery": {"driver": "log"}
	}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("logging: %+v", cfg.Logging)
	}
	if cfg.Feeds.DataDir != "./data" {
		t.Fatalf("feeds: %+v", cfg.Feeds)
	}
	if cfg.Reminders.ProjectionDays != 7 || cfg.Reminders.LeadTime != "10m" {
		t.Fatalf("reminders: %+v", cfg.Reminders)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
logging:
  level: info
  console: true
feeds:
  data_dir: /var/lib/classbell
reminders:
  lead_time: 5m
delivery:
  driver: telegram
  telegram:
    token: "123:abc"
    chat_id: 42
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Delivery.Driver != "telegram" {
		t.Fatalf("delivery: %+v", cfg.Delivery)
	}
	if cfg.Delivery.Telegram == nil || cfg.Delivery.Telegram.ChatID != 42 {
		t.Fatalf("telegram: %+v", cfg.Delivery.Telegram)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"feeds": {"data_dir": "./d"}, "typo_field": 1}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestManagerGetAfterLoad(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"feeds": {"data_dir": "./d"}}`)
	m := NewManager(path)
	if m.Get() != nil {
		t.Fatal("Get before Load should be nil")
	}
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{Feeds: FeedsConfig{DataDir: "./data"}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "minimal ok", mutate: func(*Config) {}},
		{name: "missing data dir", mutate: func(c *Config) { c.Feeds.DataDir = " " }, wantErr: true},
		{name: "bad refresh", mutate: func(c *Config) { c.Feeds.Refresh = "soon" }, wantErr: true},
		{name: "bad lead time", mutate: func(c *Config) { c.Reminders.LeadTime = "five minutes" }, wantErr: true},
		{name: "good lead time", mutate: func(c *Config) { c.Reminders.LeadTime = "5m" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Reminders.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "good timezone", mutate: func(c *Config) { c.Reminders.Timezone = "America/New_York" }},
		{name: "unknown storage driver", mutate: func(c *Config) { c.Storage.Driver = "postgres" }, wantErr: true},
		{name: "file storage", mutate: func(c *Config) { c.Storage.Driver = "file"; c.Storage.Path = "./s" }},
		{name: "unknown delivery driver", mutate: func(c *Config) { c.Delivery.Driver = "smoke-signal" }, wantErr: true},
		{
			name:    "telegram without token",
			mutate:  func(c *Config) { c.Delivery.Driver = "telegram" },
			wantErr: true,
		},
		{
			name: "telegram without chat id",
			mutate: func(c *Config) {
				c.Delivery.Driver = "telegram"
				c.Delivery.Telegram = &DeliveryTelegramConfig{Token: "123:abc"}
			},
			wantErr: true,
		},
		{
			name: "telegram ok",
			mutate: func(c *Config) {
				c.Delivery.Driver = "telegram"
				c.Delivery.Telegram = &DeliveryTelegramConfig{Token: "123:abc", ChatID: 7}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := Validate(context.Background(), cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if d, err := ParseDurationField("x", "90s"); err != nil || d != 90*time.Second {
		t.Fatalf("90s: %v %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5m"); err == nil {
		t.Fatal("negative duration accepted")
	}
	if d, err := ParseDurationOrDefault("x", "", time.Minute); err != nil || d != time.Minute {
		t.Fatalf("default: %v %v", d, err)
	}
}

func TestSubscribePublish(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"feeds": {"data_dir": "./d"}}`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)
	m.publish(cfg)

	select {
	case got := <-ch:
		if got != cfg {
			t.Fatal("wrong config delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never notified")
	}
}
