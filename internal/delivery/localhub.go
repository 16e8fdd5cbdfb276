package delivery

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "classbell/pkg/logx"
)

// LocalConfig controls the in-process hub.
type LocalConfig struct {
	Workers    int
	RatePerSec int
}

type fired struct {
	id    string
	title string
	body  string
}

// LocalHub is an in-process Hub implementation: one timer per registered
// reminder, and a small rate-limited worker pool that hands fired reminders
// to a Sink. It is safe for concurrent use.
type LocalHub struct {
	mu sync.Mutex

	log     logx.Logger
	sink    Sink
	cfg     LocalConfig
	limiter *rate.Limiter

	timers map[string]*time.Timer
	fireCh chan fired

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup

	now func() time.Time
}

func NewLocalHub(cfg LocalConfig, sink Sink, log logx.Logger) *LocalHub {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	return &LocalHub{
		log:     log,
		sink:    sink,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		timers:  map[string]*time.Timer{},
		now:     time.Now,
	}
}

// Start is idempotent.
func (h *LocalHub) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fireCh != nil {
		return
	}
	h.fireCh = make(chan fired, 64)
	h.runCtx, h.runCancel = context.WithCancel(ctx)

	runCtx := h.runCtx
	ch := h.fireCh
	h.wg.Add(h.cfg.Workers)
	for i := 0; i < h.cfg.Workers; i++ {
		idx := i
		go func() {
			defer h.wg.Done()
			h.worker(runCtx, ch, idx)
		}()
	}
	h.log.Debug("local hub started", logx.Int("workers", h.cfg.Workers))
}

// Stop discards pending timers and waits for in-flight deliveries.
func (h *LocalHub) Stop(ctx context.Context) {
	h.mu.Lock()
	cancel := h.runCancel
	h.runCancel = nil
	for id, t := range h.timers {
		_ = t.Stop()
		delete(h.timers, id)
	}
	h.fireCh = nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// deliveries continue draining in background
	}
}

// Schedule registers the reminder and reports the outcome asynchronously.
func (h *LocalHub) Schedule(req Request, done func(error)) {
	if done == nil {
		done = func(error) {}
	}

	h.mu.Lock()
	if h.fireCh == nil {
		h.mu.Unlock()
		go done(errors.New("local hub not running"))
		return
	}
	if req.ID == "" {
		h.mu.Unlock()
		go done(errors.New("empty reminder id"))
		return
	}
	if old, ok := h.timers[req.ID]; ok {
		_ = old.Stop()
	}

	delay := req.At.Sub(h.now())
	if delay < 0 {
		delay = 0
	}
	id, title, body := req.ID, req.Title, req.Body
	h.timers[req.ID] = time.AfterFunc(delay, func() { h.fire(id, title, body) })
	h.mu.Unlock()

	go done(nil)
}

// Cancel drops pending registrations by id. Fire-and-forget.
func (h *LocalHub) Cancel(ids []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range ids {
		if t, ok := h.timers[id]; ok {
			_ = t.Stop()
			delete(h.timers, id)
		}
	}
}

// Pending returns the number of registrations that have not fired yet.
func (h *LocalHub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.timers)
}

func (h *LocalHub) fire(id, title, body string) {
	h.mu.Lock()
	delete(h.timers, id)
	ch := h.fireCh
	h.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- fired{id: id, title: title, body: body}:
	default:
		h.log.Warn("delivery queue full; reminder dropped", logx.String("id", id))
	}
}

func (h *LocalHub) worker(ctx context.Context, ch <-chan fired, idx int) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-ch:
			if err := h.limiter.Wait(ctx); err != nil {
				return
			}
			if h.sink == nil {
				continue
			}
			if err := h.sink.Notify(ctx, f.title, f.body); err != nil {
				h.log.Warn("reminder delivery failed",
					logx.String("id", f.id),
					logx.Int("worker", idx),
					logx.Err(err),
				)
			}
		}
	}
}
