// Package delivery abstracts the reminder delivery subsystem: a hub accepts
// future-dated registrations by id and cancels them by id. The reminder
// scheduler only ever holds ids; the hub owns the actual firing.
package delivery

import (
	"context"
	"time"
)

// Request is one reminder registration.
type Request struct {
	ID    string
	At    time.Time
	Title string
	Body  string
}

// Hub is the delivery subsystem boundary.
//
// Schedule is asynchronous: it returns after dispatching and reports the
// registration outcome through done (called exactly once, from an arbitrary
// goroutine). Cancel is fire-and-forget; cancelling an unknown id is a no-op.
type Hub interface {
	Schedule(req Request, done func(error))
	Cancel(ids []string)
}

// Sink receives reminders the moment they fire.
type Sink interface {
	Notify(ctx context.Context, title, body string) error
}
