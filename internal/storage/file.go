package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "classbell/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.reminders.snapshot.json (whole-set snapshot)
//   - <prefix>.reminders.journal.jsonl (append-only journal of single adds)
//
// ReplaceReminders rewrites the snapshot (tmp + rename) and truncates the
// journal; AppendReminder only appends a journal line. Load replays snapshot
// then journal, so a crash between the two steps of a clear loses at most the
// journal tail, never invents reminders.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	snapshotPath string
	journalFile  *os.File
	recs         []ReminderRecord
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	snapPath := prefix + ".reminders.snapshot.json"
	journalPath := prefix + ".reminders.journal.jsonl"

	recs := []ReminderRecord{}
	_ = loadSnapshot(snapPath, &recs)
	_ = replayJournal(journalPath, &recs)

	jf, err := os.OpenFile(journalPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:          log,
		snapshotPath: snapPath,
		journalFile:  jf,
		recs:         recs,
	}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile != nil {
		err := s.journalFile.Close()
		s.journalFile = nil
		return err
	}
	return nil
}

func (s *fileStore) AppendReminder(ctx context.Context, rec ReminderRecord) error {
	_ = ctx
	if strings.TrimSpace(rec.ID) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return errors.New("reminder journal closed")
	}
	s.recs = append(s.recs, rec)

	enc := json.NewEncoder(s.journalFile)
	return enc.Encode(rec)
}

func (s *fileStore) ReplaceReminders(ctx context.Context, recs []ReminderRecord) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journalFile == nil {
		return errors.New("reminder journal closed")
	}
	s.recs = append([]ReminderRecord(nil), recs...)
	return s.snapshotLocked()
}

func (s *fileStore) LoadReminders(ctx context.Context) ([]ReminderRecord, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReminderRecord(nil), s.recs...), nil
}

func (s *fileStore) snapshotLocked() error {
	tmp := s.snapshotPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.recs); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return err
	}
	// Truncate journal; its records are folded into the snapshot.
	if err := s.journalFile.Truncate(0); err != nil {
		return err
	}
	_, err = s.journalFile.Seek(0, 2)
	return err
}

func loadSnapshot(path string, out *[]ReminderRecord) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var recs []ReminderRecord
	if err := json.NewDecoder(f).Decode(&recs); err != nil {
		return err
	}
	*out = append(*out, recs...)
	return nil
}

func replayJournal(path string, out *[]ReminderRecord) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r ReminderRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		if r.ID == "" {
			continue
		}
		*out = append(*out, r)
	}
	return sc.Err()
}
