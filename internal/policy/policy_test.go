package policy

import (
	"testing"
	"time"

	"classbell/internal/schedule"
)

type mapCourses map[schedule.BlockID]Course

func (m mapCourses) CourseFor(id schedule.BlockID) (Course, bool) {
	c, ok := m[id]
	return c, ok
}

type mapMetas map[schedule.BlockID]BlockMeta

func (m mapMetas) MetaFor(id schedule.BlockID) (BlockMeta, bool) {
	b, ok := m[id]
	return b, ok
}

func TestShouldNotify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		courses mapCourses
		metas   mapMetas
		id      schedule.BlockID
		want    bool
	}{
		{name: "no data defaults on", id: schedule.BlockA, want: true},
		{
			name:    "course opt-out",
			courses: mapCourses{schedule.BlockA: {Name: "Math", Notifications: false}},
			id:      schedule.BlockA,
			want:    false,
		},
		{
			name:    "course opt-in wins over meta opt-out",
			courses: mapCourses{schedule.BlockA: {Name: "Math", Notifications: true}},
			metas:   mapMetas{schedule.BlockA: {Notifications: false}},
			id:      schedule.BlockA,
			want:    true,
		},
		{
			name:  "meta opt-out without course",
			metas: mapMetas{schedule.BlockLunch: {Notifications: false}},
			id:    schedule.BlockLunch,
			want:  false,
		},
		{
			name:    "unrelated block unaffected",
			courses: mapCourses{schedule.BlockA: {Notifications: false}},
			metas:   mapMetas{schedule.BlockLunch: {Notifications: false}},
			id:      schedule.BlockB,
			want:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := Policy{Courses: tt.courses, Metas: tt.metas}
			got := p.ShouldNotify(schedule.Block{ID: tt.id})
			if got != tt.want {
				t.Fatalf("ShouldNotify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		policy   Policy
		block    schedule.Block
		wantBody string
	}{
		{
			name: "course name and location",
			policy: Policy{
				Courses:  mapCourses{schedule.BlockA: {Name: "AP Calculus", Location: "Room 204", Notifications: true}},
				LeadTime: 5 * time.Minute,
			},
			block:    schedule.Block{ID: schedule.BlockA},
			wantBody: "5 min until AP Calculus Room 204",
		},
		{
			name:     "block letter fallback",
			policy:   Policy{LeadTime: 5 * time.Minute},
			block:    schedule.Block{ID: schedule.BlockB},
			wantBody: "5 min until B Block",
		},
		{
			name:     "block name override",
			policy:   Policy{LeadTime: 5 * time.Minute},
			block:    schedule.Block{ID: schedule.BlockCustom, Name: "Assembly"},
			wantBody: "5 min until Assembly",
		},
		{
			name: "custom meta name",
			policy: Policy{
				Metas:    mapMetas{schedule.BlockG: {CustomName: "Study Hall", Notifications: true}},
				LeadTime: 5 * time.Minute,
			},
			block:    schedule.Block{ID: schedule.BlockG},
			wantBody: "5 min until Study Hall",
		},
		{
			name: "custom lead time",
			policy: Policy{
				LeadTime: 10 * time.Minute,
			},
			block:    schedule.Block{ID: schedule.BlockA},
			wantBody: "10 min until A Block",
		},
		{
			name:     "zero lead defaults to five",
			policy:   Policy{},
			block:    schedule.Block{ID: schedule.BlockA},
			wantBody: "5 min until A Block",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.policy.BuildMessage(tt.block)
			if msg.Title != "Get to Class" {
				t.Fatalf("Title = %q", msg.Title)
			}
			if msg.Body != tt.wantBody {
				t.Fatalf("Body = %q, want %q", msg.Body, tt.wantBody)
			}
		})
	}
}

func TestDisplayNamePrecedence(t *testing.T) {
	t.Parallel()
	courses := mapCourses{schedule.BlockA: {Name: "Physics", Notifications: true}}
	metas := mapMetas{schedule.BlockA: {CustomName: "First Period", Notifications: true}}

	// Course name shadows both the block override and the custom name.
	a := Analyst{Courses: courses, Metas: metas, Block: schedule.Block{ID: schedule.BlockA, Name: "Assembly"}}
	if got := a.DisplayName(); got != "Physics" {
		t.Fatalf("DisplayName = %q, want Physics", got)
	}

	// Without a course the block's own name wins.
	a = Analyst{Metas: metas, Block: schedule.Block{ID: schedule.BlockA, Name: "Assembly"}}
	if got := a.DisplayName(); got != "Assembly" {
		t.Fatalf("DisplayName = %q, want Assembly", got)
	}

	// Then the user's custom name.
	a = Analyst{Metas: metas, Block: schedule.Block{ID: schedule.BlockA}}
	if got := a.DisplayName(); got != "First Period" {
		t.Fatalf("DisplayName = %q, want First Period", got)
	}

	// A course with an empty name falls through to the letter.
	a = Analyst{Courses: mapCourses{schedule.BlockB: {Notifications: true}}, Block: schedule.Block{ID: schedule.BlockB}}
	if got := a.DisplayName(); got != "B Block" {
		t.Fatalf("DisplayName = %q, want B Block", got)
	}
}
