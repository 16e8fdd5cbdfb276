// Package policy decides, per resolved block, whether a reminder should fire
// and what it should say. Course-level opt-out takes precedence over per-block
// metadata opt-out; with neither present the default is to notify.
package policy

import (
	"fmt"
	"strings"
	"time"

	"classbell/internal/schedule"
)

// Course is a user-entered class attached to a block id.
type Course struct {
	Name          string
	Location      string
	Notifications bool
}

// BlockMeta is the per-block-id user preference record, independent of date.
type BlockMeta struct {
	CustomName    string
	Notifications bool
}

// CourseStore looks up the course attached to a block id, if any.
type CourseStore interface {
	CourseFor(id schedule.BlockID) (Course, bool)
}

// MetaStore looks up per-block user preferences, if any.
type MetaStore interface {
	MetaFor(id schedule.BlockID) (BlockMeta, bool)
}

// Message is the rendered reminder text.
type Message struct {
	Title string
	Body  string
}

const titleGetToClass = "Get to Class"

// Policy evaluates blocks against the user's course and preference stores.
type Policy struct {
	Courses  CourseStore
	Metas    MetaStore
	LeadTime time.Duration
}

// ShouldNotify reports whether a reminder should fire for the block.
// Course setting wins over block metadata; default is true.
func (p Policy) ShouldNotify(block schedule.Block) bool {
	if p.Courses != nil {
		if course, ok := p.Courses.CourseFor(block.ID); ok {
			return course.Notifications
		}
	}
	if p.Metas != nil {
		if meta, ok := p.Metas.MetaFor(block.ID); ok {
			return meta.Notifications
		}
	}
	return true
}

// BuildMessage renders the reminder title and body for the block.
func (p Policy) BuildMessage(block schedule.Block) Message {
	a := Analyst{Courses: p.Courses, Metas: p.Metas, Block: block}

	lead := p.LeadTime
	if lead <= 0 {
		lead = 5 * time.Minute
	}
	body := fmt.Sprintf("%d min until %s", int(lead.Minutes()), a.DisplayName())
	if loc := a.Location(); loc != "" {
		body += " " + loc
	}
	return Message{Title: titleGetToClass, Body: body}
}

// Analyst maps a block to human-readable name and location, consulting the
// course attached to the block, then the block's own override, then the user's
// custom name, and finally the block letter.
type Analyst struct {
	Courses CourseStore
	Metas   MetaStore
	Block   schedule.Block
}

func (a Analyst) course() (Course, bool) {
	if a.Courses == nil {
		return Course{}, false
	}
	return a.Courses.CourseFor(a.Block.ID)
}

func (a Analyst) DisplayName() string {
	if course, ok := a.course(); ok && strings.TrimSpace(course.Name) != "" {
		return course.Name
	}
	if strings.TrimSpace(a.Block.Name) != "" {
		return a.Block.Name
	}
	if a.Metas != nil {
		if meta, ok := a.Metas.MetaFor(a.Block.ID); ok && strings.TrimSpace(meta.CustomName) != "" {
			return meta.CustomName
		}
	}
	return a.Block.ID.DisplayLetter()
}

func (a Analyst) Location() string {
	if course, ok := a.course(); ok {
		return strings.TrimSpace(course.Location)
	}
	return ""
}
