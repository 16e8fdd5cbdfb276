package feed

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"classbell/internal/policy"
	"classbell/internal/schedule"
	"classbell/internal/timeutil"
)

// Data file layout (YAML):
//
//	template.yaml  weekday name -> ordered block list
//	specials.yaml  list of {date: YYYY-MM-DD, blocks: [...]}
//	prefs.yaml     {courses: {id: {...}}, blocks: {id: {...}}}

type blockSpec struct {
	ID    string             `yaml:"id"`
	Start timeutil.TimeOfDay `yaml:"start"`
	End   timeutil.TimeOfDay `yaml:"end"`
	Name  string             `yaml:"name"`
}

type specialSpec struct {
	Date   string      `yaml:"date"`
	Blocks []blockSpec `yaml:"blocks"`
}

type courseSpec struct {
	Name          string `yaml:"name"`
	Location      string `yaml:"location"`
	Notifications *bool  `yaml:"notifications"`
}

type metaSpec struct {
	Name          string `yaml:"name"`
	Notifications *bool  `yaml:"notifications"`
}

type prefsFile struct {
	Courses map[string]courseSpec `yaml:"courses"`
	Blocks  map[string]metaSpec   `yaml:"blocks"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func toBlocks(specs []blockSpec) []schedule.Block {
	blocks := make([]schedule.Block, 0, len(specs))
	for _, sp := range specs {
		blocks = append(blocks, schedule.Block{
			ID:   schedule.BlockID(strings.ToLower(strings.TrimSpace(sp.ID))),
			Time: schedule.BlockTime{Start: sp.Start, End: sp.End},
			Name: strings.TrimSpace(sp.Name),
		})
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Time.Start.Before(blocks[j].Time.Start)
	})
	return blocks
}

func parseTemplate(data []byte) (schedule.WeekdayTemplate, error) {
	var raw map[string][]blockSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}

	tmpl := schedule.WeekdayTemplate{}
	for name, specs := range raw {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("template: unknown weekday %q", name)
		}
		blocks := toBlocks(specs)
		if err := (schedule.DateSchedule{Blocks: blocks}).Validate(); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		tmpl[wd] = blocks
	}
	return tmpl, nil
}

func parseSpecials(data []byte, loc *time.Location) ([]schedule.DateSchedule, error) {
	var raw []specialSpec
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("specials: %w", err)
	}

	out := make([]schedule.DateSchedule, 0, len(raw))
	for _, sp := range raw {
		date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(sp.Date), loc)
		if err != nil {
			return nil, fmt.Errorf("specials: bad date %q: %w", sp.Date, err)
		}
		ds := schedule.DateSchedule{
			Date:    date,
			Changed: true,
			Blocks:  toBlocks(sp.Blocks),
		}
		if err := ds.Validate(); err != nil {
			return nil, fmt.Errorf("specials %s: %w", sp.Date, err)
		}
		out = append(out, ds)
	}
	return out, nil
}

func parsePrefs(data []byte) (map[schedule.BlockID]policy.Course, map[schedule.BlockID]policy.BlockMeta, error) {
	var raw prefsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("prefs: %w", err)
	}

	courses := map[schedule.BlockID]policy.Course{}
	for id, c := range raw.Courses {
		notif := true
		if c.Notifications != nil {
			notif = *c.Notifications
		}
		courses[schedule.BlockID(strings.ToLower(strings.TrimSpace(id)))] = policy.Course{
			Name:          strings.TrimSpace(c.Name),
			Location:      strings.TrimSpace(c.Location),
			Notifications: notif,
		}
	}

	metas := map[schedule.BlockID]policy.BlockMeta{}
	for id, m := range raw.Blocks {
		notif := true
		if m.Notifications != nil {
			notif = *m.Notifications
		}
		metas[schedule.BlockID(strings.ToLower(strings.TrimSpace(id)))] = policy.BlockMeta{
			CustomName:    strings.TrimSpace(m.Name),
			Notifications: notif,
		}
	}
	return courses, metas, nil
}

func readFileIfExists(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}
