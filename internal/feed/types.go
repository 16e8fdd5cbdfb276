package feed

import (
	"classbell/internal/schedule"
)

// Event types published on the bus. Each feed resolution is one-shot and
// carries either data or an error; subscribers react to both outcomes.
const (
	EventTemplate = "feed.template"
	EventSpecials = "feed.specials"
	EventPrefs    = "feed.prefs"
)

// TemplateUpdate is the outcome of a weekday-template fetch.
type TemplateUpdate struct {
	Template schedule.WeekdayTemplate
	Err      error
}

// SpecialsUpdate is the outcome of a special-schedule-list fetch.
type SpecialsUpdate struct {
	Schedules []schedule.DateSchedule
	Err       error
}

// PrefsUpdate signals that per-block preferences changed. The preference
// store is already updated when this is published; consumers re-read it.
type PrefsUpdate struct{}
