package storage

import (
	"context"
	"errors"
	"strings"

	logx "classbell/pkg/logx"
)

// Store is the persistence API the reminder registry uses.
//
// AppendReminder adds one record; ReplaceReminders atomically swaps the whole
// set (used by the scheduler's clear-then-rebuild cycle); LoadReminders
// returns the persisted ground truth for crash recovery.
type Store interface {
	AppendReminder(ctx context.Context, rec ReminderRecord) error
	ReplaceReminders(ctx context.Context, recs []ReminderRecord) error
	LoadReminders(ctx context.Context) ([]ReminderRecord, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
