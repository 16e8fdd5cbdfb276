package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (snapshot + jsonl journal)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled and the registry runs
// in-memory only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// ReminderRecord is one persisted registry entry. Keep it compact and
// schema-stable: the id and trigger date must round-trip losslessly.
type ReminderRecord struct {
	ID string `json:"id"`
	At int64  `json:"at"` // trigger date, unix milli
}

// TriggerTime returns the record's trigger date as a time.Time.
func (r ReminderRecord) TriggerTime() time.Time { return time.UnixMilli(r.At) }
