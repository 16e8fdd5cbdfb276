// Package feed supplies the engine's inbound data: the weekday template, the
// date-specific special schedules, and per-block user preferences. The
// shipped source is file-backed (a data directory of YAML files), refreshed
// on an interval and on file change; every resolution publishes a success or
// failure outcome on the event bus.
//
// The network data source of the original system lives behind the same push
// contract and is out of scope here.
package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"classbell/internal/eventbus"
	"classbell/internal/schedule"
	logx "classbell/pkg/logx"
)

const (
	templateFileName = "template.yaml"
	specialsFileName = "specials.yaml"
	prefsFileName    = "prefs.yaml"
)

// Config controls the file-backed feed service.
type Config struct {
	DataDir string
	Refresh time.Duration // 0 disables periodic refresh
}

// Service loads the data files, watches them for changes, and publishes
// outcomes on the bus.
type Service struct {
	cfg   Config
	log   logx.Logger
	bus   eventbus.Bus
	loc   *time.Location
	store *PrefStore

	mu        sync.Mutex
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

func New(cfg Config, store *PrefStore, bus eventbus.Bus, loc *time.Location, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{cfg: cfg, log: log, bus: bus, loc: loc, store: store}
}

// Store returns the live preference store backed by prefs.yaml.
func (s *Service) Store() *PrefStore { return s.store }

// Start performs the initial load (publishing outcomes) and begins watching
// the data directory. Idempotent.
func (s *Service) Start(ctx context.Context) error {
	if strings.TrimSpace(s.cfg.DataDir) == "" {
		return errors.New("feed data dir is not set")
	}
	if _, err := os.Stat(s.cfg.DataDir); err != nil {
		return fmt.Errorf("feed data dir: %w", err)
	}

	s.mu.Lock()
	if s.runCancel != nil {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel
	s.mu.Unlock()

	s.loadTemplate()
	s.loadSpecials()
	s.loadPrefs(false)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.watch(runCtx)
	}()

	if s.cfg.Refresh > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.refreshLoop(runCtx)
		}()
	}

	s.log.Info("feed service started", logx.String("data_dir", s.cfg.DataDir), logx.Duration("refresh", s.cfg.Refresh))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.runCancel
	s.runCancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}

// Reload re-reads every data file and republishes. Used by tests and by the
// refresh loop.
func (s *Service) Reload() {
	s.loadTemplate()
	s.loadSpecials()
	s.loadPrefs(true)
}

func (s *Service) loadTemplate() {
	path := filepath.Join(s.cfg.DataDir, templateFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("template load failed", logx.String("path", path), logx.Err(err))
		s.bus.Publish(eventbus.Event{Type: EventTemplate, Data: TemplateUpdate{Err: err}})
		return
	}
	tmpl, err := parseTemplate(b)
	if err != nil {
		s.log.Warn("template parse failed", logx.String("path", path), logx.Err(err))
		s.bus.Publish(eventbus.Event{Type: EventTemplate, Data: TemplateUpdate{Err: err}})
		return
	}
	s.log.Debug("template loaded", logx.Int("weekdays", len(tmpl)))
	s.bus.Publish(eventbus.Event{Type: EventTemplate, Data: TemplateUpdate{Template: tmpl}})
}

func (s *Service) loadSpecials() {
	path := filepath.Join(s.cfg.DataDir, specialsFileName)
	b, ok, err := readFileIfExists(path)
	if err != nil {
		s.log.Warn("specials load failed", logx.String("path", path), logx.Err(err))
		s.bus.Publish(eventbus.Event{Type: EventSpecials, Data: SpecialsUpdate{Err: err}})
		return
	}
	// Absent file means "no overrides", which is still a loaded set.
	specials := []schedule.DateSchedule{}
	if ok {
		specials, err = parseSpecials(b, s.loc)
		if err != nil {
			s.log.Warn("specials parse failed", logx.String("path", path), logx.Err(err))
			s.bus.Publish(eventbus.Event{Type: EventSpecials, Data: SpecialsUpdate{Err: err}})
			return
		}
	}
	s.log.Debug("specials loaded", logx.Int("count", len(specials)))
	s.bus.Publish(eventbus.Event{Type: EventSpecials, Data: SpecialsUpdate{Schedules: specials}})
}

func (s *Service) loadPrefs(publish bool) {
	path := filepath.Join(s.cfg.DataDir, prefsFileName)
	b, ok, err := readFileIfExists(path)
	if err != nil {
		s.log.Warn("prefs load failed", logx.String("path", path), logx.Err(err))
		return
	}
	if !ok {
		s.store.replace(nil, nil)
		return
	}
	courses, metas, err := parsePrefs(b)
	if err != nil {
		s.log.Warn("prefs parse failed", logx.String("path", path), logx.Err(err))
		return
	}
	s.store.replace(courses, metas)
	s.log.Debug("prefs loaded", logx.Int("courses", len(courses)), logx.Int("blocks", len(metas)))
	if publish {
		s.bus.Publish(eventbus.Event{Type: EventPrefs, Data: PrefsUpdate{}})
	}
}

func (s *Service) refreshLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.Refresh)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.loadTemplate()
			s.loadSpecials()
		}
	}
}

// watch reloads individual data files on change, with a short debounce to
// ride out partial editor writes.
func (s *Service) watch(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("feed watch init failed", logx.Err(err))
		return
	}
	defer w.Close()
	if err := w.Add(s.cfg.DataDir); err != nil {
		s.log.Warn("feed watch add failed", logx.String("dir", s.cfg.DataDir), logx.Err(err))
		return
	}

	var (
		timerMu sync.Mutex
		timers  = map[string]*time.Timer{}
	)
	debounce := func(name string) {
		timerMu.Lock()
		defer timerMu.Unlock()
		if t, ok := timers[name]; ok {
			t.Stop()
		}
		timers[name] = time.AfterFunc(250*time.Millisecond, func() {
			if ctx.Err() != nil {
				return
			}
			switch name {
			case templateFileName:
				s.loadTemplate()
			case specialsFileName:
				s.loadSpecials()
			case prefsFileName:
				s.loadPrefs(true)
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			base := filepath.Base(ev.Name)
			if base != templateFileName && base != specialsFileName && base != prefsFileName {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				s.log.Debug("feed file changed", logx.String("file", base), logx.String("op", ev.Op.String()))
				debounce(base)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			if err != nil {
				s.log.Warn("feed watch error", logx.Err(err))
			}
		}
	}
}
