package feed

import (
	"sync"

	"classbell/internal/policy"
	"classbell/internal/schedule"
)

// PrefStore is the live per-block preference lookup. The feed service swaps
// its contents on reload; readers (the notification policy) see a consistent
// snapshot per lookup.
type PrefStore struct {
	mu      sync.RWMutex
	courses map[schedule.BlockID]policy.Course
	metas   map[schedule.BlockID]policy.BlockMeta
}

func NewPrefStore() *PrefStore {
	return &PrefStore{
		courses: map[schedule.BlockID]policy.Course{},
		metas:   map[schedule.BlockID]policy.BlockMeta{},
	}
}

func (s *PrefStore) CourseFor(id schedule.BlockID) (policy.Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	return c, ok
}

func (s *PrefStore) MetaFor(id schedule.BlockID) (policy.BlockMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metas[id]
	return m, ok
}

func (s *PrefStore) replace(courses map[schedule.BlockID]policy.Course, metas map[schedule.BlockID]policy.BlockMeta) {
	if courses == nil {
		courses = map[schedule.BlockID]policy.Course{}
	}
	if metas == nil {
		metas = map[schedule.BlockID]policy.BlockMeta{}
	}
	s.mu.Lock()
	s.courses = courses
	s.metas = metas
	s.mu.Unlock()
}
