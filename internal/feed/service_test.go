package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"classbell/internal/eventbus"
	"classbell/internal/schedule"
	logx "classbell/pkg/logx"
)

func writeDataFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func collect(t *testing.T, ch <-chan eventbus.Event, n int) map[string]eventbus.Event {
	t.Helper()
	out := map[string]eventbus.Event{}
	deadline := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-ch:
			out[ev.Type] = ev
		case <-deadline:
			t.Fatalf("got %d events, want %d: %v", len(out), n, out)
		}
	}
	return out
}

func TestServiceInitialLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDataFile(t, dir, templateFileName, "monday:\n  - {id: a, start: \"09:00\", end: \"09:50\"}\n")
	writeDataFile(t, dir, specialsFileName, "- date: \"2025-09-15\"\n  blocks: []\n")
	writeDataFile(t, dir, prefsFileName, "courses:\n  a: {name: Math}\n")

	bus := eventbus.New()
	ch, unsub := bus.Subscribe(8)
	defer unsub()

	store := NewPrefStore()
	svc := New(Config{DataDir: dir}, store, bus, time.UTC, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	evs := collect(t, ch, 2)

	tu, ok := evs[EventTemplate].Data.(TemplateUpdate)
	if !ok || tu.Err != nil {
		t.Fatalf("template event: %+v", evs[EventTemplate])
	}
	if len(tu.Template[time.Monday]) != 1 {
		t.Fatalf("template: %+v", tu.Template)
	}

	su, ok := evs[EventSpecials].Data.(SpecialsUpdate)
	if !ok || su.Err != nil || len(su.Schedules) != 1 {
		t.Fatalf("specials event: %+v", evs[EventSpecials])
	}

	// Prefs are loaded into the store without a bus event at startup.
	if c, ok := store.CourseFor(schedule.BlockA); !ok || c.Name != "Math" {
		t.Fatalf("prefs not loaded: %+v ok=%v", c, ok)
	}
}

func TestServiceMissingFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// No files at all: template is required, specials default to an empty
	// loaded set, prefs default to empty stores.
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(8)
	defer unsub()

	svc := New(Config{DataDir: dir}, NewPrefStore(), bus, time.UTC, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	evs := collect(t, ch, 2)
	if tu := evs[EventTemplate].Data.(TemplateUpdate); tu.Err == nil {
		t.Fatal("missing template must publish an error")
	}
	su := evs[EventSpecials].Data.(SpecialsUpdate)
	if su.Err != nil || su.Schedules == nil || len(su.Schedules) != 0 {
		t.Fatalf("missing specials must publish an empty loaded set: %+v", su)
	}
}

func TestServiceStartMissingDir(t *testing.T) {
	t.Parallel()
	svc := New(Config{DataDir: filepath.Join(t.TempDir(), "nope")}, NewPrefStore(), eventbus.New(), time.UTC, logx.Nop())
	if err := svc.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing data dir")
	}
}

func TestServiceReloadPublishesPrefs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeDataFile(t, dir, templateFileName, "monday:\n  - {id: a, start: \"09:00\", end: \"09:50\"}\n")

	bus := eventbus.New()
	store := NewPrefStore()
	svc := New(Config{DataDir: dir}, store, bus, time.UTC, logx.Nop())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	ch, unsub := bus.Subscribe(8)
	defer unsub()

	writeDataFile(t, dir, prefsFileName, "blocks:\n  lunch: {notifications: false}\n")
	svc.Reload()

	evs := collect(t, ch, 3)
	if _, ok := evs[EventPrefs]; !ok {
		t.Fatal("reload did not publish a prefs event")
	}
	if m, ok := store.MetaFor(schedule.BlockLunch); !ok || m.Notifications {
		t.Fatalf("lunch opt-out not applied: %+v ok=%v", m, ok)
	}
}
