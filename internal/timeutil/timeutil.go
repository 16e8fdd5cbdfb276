// Package timeutil holds the small pieces of calendar arithmetic the schedule
// resolver and reminder scheduler share: calendar-day equality, day
// offsetting, and merging a calendar date with a wall-clock time of day.
//
// All day-level operations are performed in an explicit *time.Location; the
// engine treats "same day" as same calendar day in its configured zone, never
// as a UTC-day comparison.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	t := TimeOfDay{Hour: h, Minute: m}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("time of day out of range %q", s)
	}
	return t, nil
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Hour != other.Hour {
		return t.Hour < other.Hour
	}
	return t.Minute < other.Minute
}

// Merge combines the calendar day of date (interpreted in loc) with t.
// It fails when t does not hold a valid wall-clock time.
func (t TimeOfDay) Merge(date time.Time, loc *time.Location) (time.Time, error) {
	if !t.Valid() {
		return time.Time{}, fmt.Errorf("cannot merge invalid time of day %d:%d", t.Hour, t.Minute)
	}
	if loc == nil {
		loc = time.Local
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, loc), nil
}

// UnmarshalYAML lets TimeOfDay be written as "HH:MM" in data files.
func (t *TimeOfDay) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalYAML() (any, error) { return t.String(), nil }

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DayStart returns midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	d := t.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// OffsetDays returns t shifted by n calendar days in loc.
// AddDate (rather than adding 24h multiples) keeps the wall clock stable
// across DST transitions.
func OffsetDays(t time.Time, n int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).AddDate(0, 0, n)
}

// Weekday returns t's day of week in loc.
func Weekday(t time.Time, loc *time.Location) time.Weekday {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Weekday()
}
