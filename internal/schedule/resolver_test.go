package schedule

import (
	"errors"
	"testing"
	"time"

	"classbell/internal/timeutil"
)

func tod(h, m int) timeutil.TimeOfDay { return timeutil.TimeOfDay{Hour: h, Minute: m} }

func block(id BlockID, sh, sm, eh, em int) Block {
	return Block{ID: id, Time: BlockTime{Start: tod(sh, sm), End: tod(eh, em)}}
}

func normalWeek() WeekdayTemplate {
	day := []Block{
		block(BlockA, 9, 0, 9, 50),
		block(BlockB, 10, 0, 10, 50),
		block(BlockLunch, 12, 0, 12, 45),
	}
	return WeekdayTemplate{
		time.Monday:    day,
		time.Tuesday:   day,
		time.Wednesday: day,
		time.Thursday:  day,
		time.Friday:    day,
	}
}

func TestResolveTemplateDay(t *testing.T) {
	t.Parallel()
	r := Resolver{Template: normalWeek(), Specials: []DateSchedule{}, Location: time.UTC}

	monday := time.Date(2025, 9, 1, 14, 0, 0, 0, time.UTC)
	ds, err := r.Resolve(monday)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if ds.Changed {
		t.Fatal("template day reported Changed=true")
	}
	if len(ds.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(ds.Blocks))
	}
	want := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if !ds.Date.Equal(want) {
		t.Fatalf("Date = %v, want day start %v", ds.Date, want)
	}
}

func TestResolveSpecialWins(t *testing.T) {
	t.Parallel()
	special := DateSchedule{
		Date:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Blocks: []Block{block(BlockAdvisory, 10, 0, 10, 30)},
	}
	r := Resolver{Template: normalWeek(), Specials: []DateSchedule{special}, Location: time.UTC}

	ds, err := r.Resolve(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !ds.Changed {
		t.Fatal("override day reported Changed=false")
	}
	if len(ds.Blocks) != 1 || ds.Blocks[0].ID != BlockAdvisory {
		t.Fatalf("override blocks not returned verbatim: %+v", ds.Blocks)
	}

	// A different date still resolves through the template.
	ds, err = r.Resolve(time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if ds.Changed || len(ds.Blocks) != 3 {
		t.Fatalf("neighboring date affected by override: %+v", ds)
	}
}

func TestResolveDuplicateSpecialsFirstWins(t *testing.T) {
	t.Parallel()
	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	r := Resolver{
		Template: normalWeek(),
		Specials: []DateSchedule{
			{Date: date, Blocks: []Block{block(BlockLab, 9, 0, 10, 0)}},
			{Date: date, Blocks: []Block{block(BlockFree, 9, 0, 10, 0)}},
		},
		Location: time.UTC,
	}

	ds, err := r.Resolve(date)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(ds.Blocks) != 1 || ds.Blocks[0].ID != BlockLab {
		t.Fatalf("expected first override to win, got %+v", ds.Blocks)
	}
}

func TestResolveEmptySpecialDay(t *testing.T) {
	t.Parallel()
	// Holiday: an override with zero blocks must shadow the template,
	// yielding a valid empty day rather than ErrNoScheduleForDate.
	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	r := Resolver{
		Template: normalWeek(),
		Specials: []DateSchedule{{Date: date, Blocks: nil}},
		Location: time.UTC,
	}

	ds, err := r.Resolve(date)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !ds.Changed || len(ds.Blocks) != 0 {
		t.Fatalf("holiday override mishandled: %+v", ds)
	}
}

func TestResolveNoScheduleForDate(t *testing.T) {
	t.Parallel()
	r := Resolver{Template: normalWeek(), Specials: []DateSchedule{}, Location: time.UTC}

	saturday := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	_, err := r.Resolve(saturday)
	if !errors.Is(err, ErrNoScheduleForDate) {
		t.Fatalf("err = %v, want ErrNoScheduleForDate", err)
	}
}

func TestResolveUnloadedState(t *testing.T) {
	t.Parallel()
	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := Resolver{Specials: []DateSchedule{}, Location: time.UTC}.Resolve(date)
	if !errors.Is(err, ErrTemplateUnavailable) {
		t.Fatalf("err = %v, want ErrTemplateUnavailable", err)
	}

	_, err = Resolver{Template: normalWeek(), Location: time.UTC}.Resolve(date)
	if !errors.Is(err, ErrSpecialsUnavailable) {
		t.Fatalf("err = %v, want ErrSpecialsUnavailable", err)
	}
}

func TestResolveZoneBoundary(t *testing.T) {
	t.Parallel()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	special := DateSchedule{
		Date:   time.Date(2025, 9, 1, 0, 0, 0, 0, ny),
		Blocks: []Block{block(BlockActivities, 15, 0, 16, 0)},
	}
	r := Resolver{Template: normalWeek(), Specials: []DateSchedule{special}, Location: ny}

	// 01:00 UTC Sep 2 is still Sep 1 in New York; the override applies.
	ds, err := r.Resolve(time.Date(2025, 9, 2, 1, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !ds.Changed || ds.Blocks[0].ID != BlockActivities {
		t.Fatalf("zone-boundary override missed: %+v", ds)
	}
}

func TestDateScheduleValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		blocks  []Block
		wantErr bool
	}{
		{name: "empty", blocks: nil},
		{name: "ordered", blocks: []Block{block(BlockA, 9, 0, 9, 50), block(BlockB, 10, 0, 10, 50)}},
		{name: "back to back", blocks: []Block{block(BlockA, 9, 0, 10, 0), block(BlockB, 10, 0, 11, 0)}},
		{name: "end before start", blocks: []Block{block(BlockA, 10, 0, 9, 0)}, wantErr: true},
		{name: "overlap", blocks: []Block{block(BlockA, 9, 0, 10, 0), block(BlockB, 9, 30, 10, 30)}, wantErr: true},
		{name: "out of order", blocks: []Block{block(BlockB, 10, 0, 10, 50), block(BlockA, 9, 0, 9, 50)}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := (DateSchedule{Blocks: tt.blocks}).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDisplayLetter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		id   BlockID
		want string
	}{
		{BlockA, "A Block"},
		{BlockG, "G Block"},
		{BlockLunch, "Lunch"},
		{BlockAdvisory, "Advisory"},
		{BlockID(""), "?"},
	}
	for _, tt := range tests {
		if got := tt.id.DisplayLetter(); got != tt.want {
			t.Fatalf("DisplayLetter(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
