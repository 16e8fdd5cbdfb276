package schedule

import (
	"fmt"
	"strings"
	"time"

	"classbell/internal/timeutil"
)

// BlockID identifies a schedule slot. Ordinary subject slots use the school's
// letter ids; lunch/free/activities are structural slots.
type BlockID string

const (
	BlockA          BlockID = "a"
	BlockB          BlockID = "b"
	BlockC          BlockID = "c"
	BlockD          BlockID = "d"
	BlockE          BlockID = "e"
	BlockF          BlockID = "f"
	BlockG          BlockID = "g"
	BlockAdvisory   BlockID = "advisory"
	BlockLab        BlockID = "lab"
	BlockActivities BlockID = "activities"
	BlockLunch      BlockID = "lunch"
	BlockFree       BlockID = "free"
	BlockCustom     BlockID = "custom"
)

// DisplayLetter is the fallback human-readable name for a block with no
// course and no custom name attached.
func (id BlockID) DisplayLetter() string {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "?"
	}
	if len(s) == 1 {
		return strings.ToUpper(s) + " Block"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BlockTime is a start/end pair of wall-clock times.
type BlockTime struct {
	Start timeutil.TimeOfDay `yaml:"start" json:"start"`
	End   timeutil.TimeOfDay `yaml:"end" json:"end"`
}

// Block is one scheduled period within a day. Immutable value type.
type Block struct {
	ID   BlockID   `yaml:"id" json:"id"`
	Time BlockTime `yaml:"-" json:"time"`

	// Name overrides the resolved display name when set (e.g. "Assembly").
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// DateSchedule is the resolved schedule for one concrete calendar date.
// Changed is true when the schedule came from a date-specific override
// rather than the weekday template.
type DateSchedule struct {
	Date    time.Time
	Changed bool
	Blocks  []Block
}

// Validate checks the ordering invariant: blocks sorted by start time with
// non-overlapping time ranges.
func (s DateSchedule) Validate() error {
	for i, b := range s.Blocks {
		if !b.Time.Start.Valid() || !b.Time.End.Valid() {
			return fmt.Errorf("block %s: invalid time range %s-%s", b.ID, b.Time.Start, b.Time.End)
		}
		if b.Time.End.Before(b.Time.Start) {
			return fmt.Errorf("block %s: end %s before start %s", b.ID, b.Time.End, b.Time.Start)
		}
		if i > 0 {
			prev := s.Blocks[i-1]
			if b.Time.Start.Before(prev.Time.End) {
				return fmt.Errorf("block %s at %s overlaps %s ending %s", b.ID, b.Time.Start, prev.ID, prev.Time.End)
			}
		}
	}
	return nil
}

// WeekdayTemplate maps day-of-week to the "normal" recurring block list.
// Absence of a weekday means no school that day.
type WeekdayTemplate map[time.Weekday][]Block
