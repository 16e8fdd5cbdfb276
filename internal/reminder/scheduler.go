package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"classbell/internal/delivery"
	"classbell/internal/eventbus"
	"classbell/internal/feed"
	"classbell/internal/policy"
	"classbell/internal/schedule"
	"classbell/internal/timeutil"
	logx "classbell/pkg/logx"
)

// Config controls the reminder scheduler.
type Config struct {
	ProjectionDays int           // deep projection window (default 10)
	ShallowDays    int           // shallow window for preference-only changes (default 2)
	LeadTime       time.Duration // trigger = block start - LeadTime (default 5m)
	SweepSpec      string        // cron spec for the expiry sweep (default @hourly)
	Timezone       string        // IANA TZ; empty means local
}

func (c Config) withDefaults() Config {
	if c.ProjectionDays <= 0 {
		c.ProjectionDays = 10
	}
	if c.ShallowDays <= 0 {
		c.ShallowDays = 2
	}
	if c.LeadTime <= 0 {
		c.LeadTime = 5 * time.Minute
	}
	if strings.TrimSpace(c.SweepSpec) == "" {
		c.SweepSpec = "@hourly"
	}
	return c
}

// Scheduler rebuilds the reminder registry whenever the template, special
// schedules, or preferences change.
//
// A single goroutine drains queue; recompute runs and delivery completion
// callbacks all execute there, so the registry is never mutated concurrently.
// Recompute cancels the previous run's context before enqueueing, so a run
// observes cancellation even while an older run still occupies the queue.
type Scheduler struct {
	cfg Config
	log logx.Logger
	bus eventbus.Bus
	hub delivery.Hub
	reg *Registry
	pol policy.Policy
	loc *time.Location

	mu        sync.Mutex
	queue     chan func()
	runCancel context.CancelFunc // cancels the in-flight recompute run
	stop      context.CancelFunc // cancels queue/bus goroutines
	wg        sync.WaitGroup
	c         *cron.Cron

	// Loaded feed state. nil means not yet loaded; loaded-with-error keeps
	// the error for logging.
	template    schedule.WeekdayTemplate
	templateErr error
	specials    []schedule.DateSchedule
	specialsErr error

	now func() time.Time
}

func NewScheduler(cfg Config, reg *Registry, hub delivery.Hub, pol policy.Policy, bus eventbus.Bus, log logx.Logger) (*Scheduler, error) {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}

	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, err
		}
	}
	if pol.LeadTime <= 0 {
		pol.LeadTime = cfg.LeadTime
	}

	return &Scheduler{
		cfg: cfg,
		log: log,
		bus: bus,
		hub: hub,
		reg: reg,
		pol: pol,
		loc: loc,
		now: time.Now,
	}, nil
}

// Start spins up the work queue, the feed subscription, and the expiry sweep.
// Idempotent.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.queue = make(chan func(), 256)
	q := s.queue
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain(runCtx, q)
	}()

	if s.bus != nil {
		ch, unsub := s.bus.Subscribe(16)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer unsub()
			s.listen(runCtx, ch)
		}()
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.cfg.SweepSpec, s.Sweep); err != nil {
		s.log.Warn("invalid sweep spec; expiry sweep disabled", logx.String("spec", s.cfg.SweepSpec), logx.Err(err))
	} else {
		c.Start()
		s.mu.Lock()
		s.c = c
		s.mu.Unlock()
	}

	s.log.Info("reminder scheduler started",
		logx.Int("projection_days", s.cfg.ProjectionDays),
		logx.Duration("lead_time", s.cfg.LeadTime),
		logx.String("tz", s.loc.String()),
	)
}

// Stop cancels any in-flight run and shuts the queue down. Pending queue
// items are dropped; the persisted registry remains ground truth.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	stop := s.stop
	c := s.c
	runCancel := s.runCancel
	s.stop = nil
	s.c = nil
	s.runCancel = nil
	s.queue = nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	if runCancel != nil {
		runCancel()
	}
	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("reminder scheduler stopped")
}

func (s *Scheduler) drain(ctx context.Context, q chan func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-q:
			fn()
		}
	}
}

func (s *Scheduler) listen(ctx context.Context, ch <-chan eventbus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Scheduler) handleEvent(ev eventbus.Event) {
	switch ev.Type {
	case feed.EventTemplate:
		up, ok := ev.Data.(feed.TemplateUpdate)
		if !ok {
			return
		}
		s.mu.Lock()
		s.template = up.Template
		s.templateErr = up.Err
		s.mu.Unlock()
		// A failed template fetch only records the error; the next successful
		// fetch triggers the rebuild.
		if up.Err == nil {
			s.Recompute(s.cfg.ProjectionDays)
		}
	case feed.EventSpecials:
		up, ok := ev.Data.(feed.SpecialsUpdate)
		if !ok {
			return
		}
		s.mu.Lock()
		if up.Err != nil {
			s.specials = nil
		} else {
			s.specials = up.Schedules
		}
		s.specialsErr = up.Err
		s.mu.Unlock()
		// Always attempt; the run's precondition check handles the failure case.
		s.Recompute(s.cfg.ProjectionDays)
	case feed.EventPrefs:
		s.Recompute(s.cfg.ShallowDays)
	}
}

// Recompute cancels any in-flight run and enqueues a fresh one over the given
// projection window. Safe to call from any goroutine.
func (s *Scheduler) Recompute(daysAhead int) {
	if daysAhead <= 0 {
		daysAhead = s.cfg.ProjectionDays
	}

	s.mu.Lock()
	q := s.queue
	if q == nil {
		s.mu.Unlock()
		return
	}
	if s.runCancel != nil {
		s.runCancel()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel
	tmpl := s.template
	tmplErr := s.templateErr
	specials := s.specials
	spErr := s.specialsErr
	s.mu.Unlock()

	s.enqueue(q, func() { s.run(runCtx, daysAhead, tmpl, tmplErr, specials, spErr) })
}

// Sweep drops expired registry entries. Runs on the serialized queue.
func (s *Scheduler) Sweep() {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return
	}
	s.enqueue(q, func() {
		if removed := s.reg.ExpireBefore(s.now()); removed > 0 {
			s.log.Debug("expired reminders cleaned", logx.Int("removed", removed))
		}
	})
}

func (s *Scheduler) enqueue(q chan func(), fn func()) {
	// Blocking send: registry mutations must never be dropped.
	q <- fn
}

// run is one recompute pass. Preconditions first: both feeds must have
// produced data, otherwise the run exits without touching any registered
// reminder. Once preconditions hold, the previous set is cleared in full and
// the projection window is rebuilt; cancellation is honored per date and per
// block, leaving this run's already-registered reminders in place.
func (s *Scheduler) run(ctx context.Context, daysAhead int, tmpl schedule.WeekdayTemplate, tmplErr error, specials []schedule.DateSchedule, spErr error) {
	if tmpl == nil {
		s.log.Warn("recompute skipped: weekday template not available", logx.Err(tmplErr))
		return
	}
	if specials == nil {
		s.log.Warn("recompute skipped: special schedules not available", logx.Err(spErr))
		return
	}
	if ctx.Err() != nil {
		// Superseded before it started.
		return
	}

	s.reg.RemoveAll(context.Background())

	resolver := schedule.Resolver{Template: tmpl, Specials: specials, Location: s.loc}
	today := s.now().In(s.loc)
	registered := 0

	for i := 0; i < daysAhead; i++ {
		if ctx.Err() != nil {
			s.log.Debug("recompute cancelled", logx.Int("day_offset", i))
			return
		}
		day := timeutil.OffsetDays(today, i, s.loc)

		ds, err := resolver.Resolve(day)
		if err != nil {
			if errors.Is(err, schedule.ErrNoScheduleForDate) {
				s.log.Debug("no schedule for date", logx.Time("date", day))
			} else {
				s.log.Warn("schedule resolution failed", logx.Time("date", day), logx.Err(err))
			}
			continue
		}

		for _, block := range ds.Blocks {
			if ctx.Err() != nil {
				s.log.Debug("recompute cancelled", logx.Int("day_offset", i))
				return
			}
			if !s.pol.ShouldNotify(block) {
				continue
			}

			start, err := block.Time.Start.Merge(day, s.loc)
			if err != nil {
				// One malformed block never aborts the run.
				s.log.Warn("failed to compute start time for block",
					logx.String("block", string(block.ID)),
					logx.Time("date", day),
					logx.Err(err),
				)
				continue
			}
			trigger := start.Add(-s.cfg.LeadTime)

			msg := s.pol.BuildMessage(block)
			rem := NewReminder(trigger, msg.Title, msg.Body)
			registered++

			s.register(ctx, rem)
		}
	}

	s.log.Info("reminders recomputed",
		logx.Int("days", daysAhead),
		logx.Int("registered", registered),
	)
}

// register dispatches one registration to the hub. The completion callback is
// re-serialized onto the work queue before it touches the registry; if the
// owning run was cancelled while the registration was in flight, the reminder
// is immediately un-registered instead of tracked.
func (s *Scheduler) register(runCtx context.Context, rem Reminder) {
	req := delivery.Request{ID: rem.ID, At: rem.At, Title: rem.Title, Body: rem.Body}
	s.hub.Schedule(req, func(err error) {
		s.mu.Lock()
		q := s.queue
		s.mu.Unlock()
		if q == nil {
			return
		}
		s.enqueue(q, func() {
			if err != nil {
				s.log.Warn("failed to register reminder", logx.String("id", rem.ID), logx.Err(err))
				return
			}
			if runCtx.Err() != nil {
				s.hub.Cancel([]string{rem.ID})
				return
			}
			s.reg.Add(context.Background(), rem)
		})
	})
}

// Registry exposes the scheduler's registry for status reporting.
func (s *Scheduler) Registry() *Registry { return s.reg }
