package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store persists block sessions as one JSON file per calendar month.
// Files are named by the YYYY-MM of the sessions' creation times and
// written atomically via temp-file-then-rename. The store is mutated
// only from the single ledger goroutine, so no file locking is needed
// beyond the atomic replace.
type Store struct {
	dir string
}

// NewStore creates a session store using the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// MonthKey returns the month file key for a timestamp.
func MonthKey(at time.Time) string {
	return at.Format("2006-01")
}

func (s *Store) monthPath(month string) string {
	return filepath.Join(s.dir, month+".json")
}

// Load reads all sessions recorded for a month. Returns an empty list
// if the file does not exist.
func (s *Store) Load(month string) ([]BlockSession, error) {
	data, err := os.ReadFile(s.monthPath(month))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read month file %s: %w", month, err)
	}

	var sessions []BlockSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal month file %s: %w", month, err)
	}
	return sessions, nil
}

// Save writes a month's session list atomically.
func (s *Store) Save(month string, sessions []BlockSession) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal month file %s: %w", month, err)
	}

	tmpFile, err := os.CreateTemp(s.dir, month+".json.tmp")
	if err != nil {
		return fmt.Errorf("create temp month file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp month file: %w", err)
	}

	if err := os.Rename(name, s.monthPath(month)); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename month file: %w", err)
	}
	return nil
}

// Upsert updates the session in its creation-month file, replacing an
// existing entry by id or appending a new one.
func (s *Store) Upsert(session BlockSession) error {
	month := MonthKey(session.CreatedAt)
	sessions, err := s.Load(month)
	if err != nil {
		// A corrupt month file must not block subsequent writes;
		// start the month over from this session.
		sessions = nil
	}

	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	return s.Save(month, sessions)
}
