package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"classbell/internal/delivery"
	"classbell/internal/storage"
	logx "classbell/pkg/logx"
)

// Reminder is one registered future notification. Exclusively owned by the
// Registry; the delivery hub holds only the id.
type Reminder struct {
	ID    string
	At    time.Time
	Title string
	Body  string
}

// NewReminder mints a reminder with a fresh id. Ids are not stable across
// recomputes; callers must not depend on them.
func NewReminder(at time.Time, title, body string) Reminder {
	return Reminder{ID: uuid.NewString(), At: at, Title: title, Body: body}
}

// Registry is the durable record of currently-scheduled reminder ids and
// trigger dates. It is not internally locked: every mutation after Load must
// happen on the scheduler's serialized queue.
type Registry struct {
	log   logx.Logger
	store storage.Store // nil when persistence is disabled
	hub   delivery.Hub

	reminders []Reminder
}

func NewRegistry(store storage.Store, hub delivery.Hub, log logx.Logger) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{log: log, store: store, hub: hub}
}

// Load restores the persisted registry. Restored entries carry only id and
// trigger date; that is all cancellation and expiry need.
func (r *Registry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	recs, err := r.store.LoadReminders(ctx)
	if err != nil {
		return err
	}
	r.reminders = r.reminders[:0]
	for _, rec := range recs {
		r.reminders = append(r.reminders, Reminder{ID: rec.ID, At: rec.TriggerTime()})
	}
	r.log.Debug("registry restored", logx.Int("reminders", len(r.reminders)))
	return nil
}

// Add tracks a successfully registered reminder and persists it.
// Persistence failures are logged, never fatal.
func (r *Registry) Add(ctx context.Context, rem Reminder) {
	r.reminders = append(r.reminders, rem)
	if r.store == nil {
		return
	}
	rec := storage.ReminderRecord{ID: rem.ID, At: rem.At.UnixMilli()}
	if err := r.store.AppendReminder(ctx, rec); err != nil {
		r.log.Warn("failed to persist reminder", logx.String("id", rem.ID), logx.Err(err))
	}
}

// RemoveAll cancels every tracked reminder at the delivery hub, clears the
// in-memory list, and persists the empty state. Persisted state is ground
// truth: a crash between the hub cancel and the persist is recovered by
// reloading and clearing again on next start.
func (r *Registry) RemoveAll(ctx context.Context) {
	if len(r.reminders) > 0 {
		r.log.Debug("unregistering all reminders", logx.Int("count", len(r.reminders)))
	}
	ids := make([]string, 0, len(r.reminders))
	for _, rem := range r.reminders {
		ids = append(ids, rem.ID)
	}
	if r.hub != nil && len(ids) > 0 {
		r.hub.Cancel(ids)
	}
	r.reminders = r.reminders[:0]

	if r.store == nil {
		return
	}
	if err := r.store.ReplaceReminders(ctx, nil); err != nil {
		r.log.Warn("failed to persist cleared registry", logx.Err(err))
	}
}

// ExpireBefore drops entries whose trigger date is strictly before now.
// In-memory only: already-fired reminders need no hub cancellation.
func (r *Registry) ExpireBefore(now time.Time) int {
	kept := r.reminders[:0]
	for _, rem := range r.reminders {
		if rem.At.Before(now) {
			continue
		}
		kept = append(kept, rem)
	}
	removed := len(r.reminders) - len(kept)
	r.reminders = kept
	return removed
}

func (r *Registry) Len() int { return len(r.reminders) }

// Snapshot copies the current reminder list.
func (r *Registry) Snapshot() []Reminder {
	return append([]Reminder(nil), r.reminders...)
}
