package schedule

import (
	"errors"
	"time"

	"classbell/internal/timeutil"
)

var (
	// ErrTemplateUnavailable means the weekday template has not been loaded.
	ErrTemplateUnavailable = errors.New("weekday template unavailable")
	// ErrSpecialsUnavailable means the special-schedule set has not been loaded.
	ErrSpecialsUnavailable = errors.New("special schedules unavailable")
	// ErrNoScheduleForDate means neither an override nor a template entry
	// exists for the date (weekend, holiday). Benign.
	ErrNoScheduleForDate = errors.New("no schedule for date")
)

// Resolver decides, for a concrete calendar date, whether a date-specific
// override applies or the weekday template does. It is a pure lookup over its
// fields; nil Template or nil Specials means "not loaded yet" (an empty,
// non-nil Specials slice is a loaded set with no overrides).
type Resolver struct {
	Template WeekdayTemplate
	Specials []DateSchedule
	Location *time.Location
}

// Resolve returns the schedule in effect on date.
//
// An override whose date falls on the same calendar day (in the resolver's
// location) wins and is returned verbatim with Changed=true; when multiple
// overrides share a day, the first in feed order wins. Otherwise the template
// entry for the date's weekday is synthesized into a DateSchedule with
// Changed=false.
func (r Resolver) Resolve(date time.Time) (DateSchedule, error) {
	if r.Template == nil {
		return DateSchedule{}, ErrTemplateUnavailable
	}
	if r.Specials == nil {
		return DateSchedule{}, ErrSpecialsUnavailable
	}

	for _, sp := range r.Specials {
		if timeutil.SameDay(sp.Date, date, r.Location) {
			sp.Changed = true
			return sp, nil
		}
	}

	blocks, ok := r.Template[timeutil.Weekday(date, r.Location)]
	if !ok {
		return DateSchedule{}, ErrNoScheduleForDate
	}
	return DateSchedule{
		Date:    timeutil.DayStart(date, r.Location),
		Changed: false,
		Blocks:  blocks,
	}, nil
}
