package schedule

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/blockhour/internal/ids"
)

// Store manages the schedules.toml file with locking. The daemon rereads
// the working set every tick, so independent CLI invocations can edit
// the file while a daemon runs.
type Store struct {
	path string
}

// NewStore creates a schedule store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// fileSchedule is the on-disk representation of one schedule.
type fileSchedule struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Message  string   `toml:"message,omitempty"`
	Start    string   `toml:"start"`
	End      string   `toml:"end"`
	Weekdays []string `toml:"weekdays"`
	Enabled  bool     `toml:"enabled"`
}

type scheduleFile struct {
	Schedules []fileSchedule `toml:"schedule"`
}

// Schedules reads the ordered schedule list. Returns an empty list if
// the file does not exist.
func (s *Store) Schedules() ([]Schedule, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schedules file: %w", err)
	}

	var file scheduleFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, fmt.Errorf("parse schedules file: %w", err)
	}

	schedules := make([]Schedule, 0, len(file.Schedules))
	for _, entry := range file.Schedules {
		parsed, err := entry.toSchedule()
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, parsed)
	}
	return schedules, nil
}

// Add validates the schedule, assigns an ID if absent, and persists it.
// Returns the assigned ID.
func (s *Store) Add(sched Schedule) (string, error) {
	if err := sched.Validate(); err != nil {
		return "", err
	}
	if sched.ID == "" {
		sched.ID = ids.GenerateWithTimestamp(sched.Name, time.Now(), ids.DefaultLength)
	}

	err := s.update(func(schedules []Schedule) ([]Schedule, error) {
		for _, existing := range schedules {
			if existing.ID == sched.ID {
				return nil, fmt.Errorf("%w: id %s already exists", ErrInvalidSchedule, sched.ID)
			}
		}
		return append(schedules, sched), nil
	})
	if err != nil {
		return "", err
	}
	return sched.ID, nil
}

// Update applies fn to the schedule with the given ID and persists the
// result after validation.
func (s *Store) Update(id string, fn func(*Schedule)) error {
	return s.update(func(schedules []Schedule) ([]Schedule, error) {
		for i := range schedules {
			if schedules[i].ID != id {
				continue
			}
			fn(&schedules[i])
			schedules[i].ID = id
			if err := schedules[i].Validate(); err != nil {
				return nil, err
			}
			return schedules, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
	})
}

// Remove deletes the schedule with the given ID.
func (s *Store) Remove(id string) error {
	return s.update(func(schedules []Schedule) ([]Schedule, error) {
		for i := range schedules {
			if schedules[i].ID == id {
				return append(schedules[:i], schedules[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, id)
	})
}

// SetEnabled flips the enabled flag for the schedule with the given ID.
func (s *Store) SetEnabled(id string, enabled bool) error {
	return s.Update(id, func(sched *Schedule) {
		sched.Enabled = enabled
	})
}

// update atomically reads, modifies, and writes the schedule list under
// an exclusive file lock.
func (s *Store) update(fn func([]Schedule) ([]Schedule, error)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create schedules dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	schedules, err := s.Schedules()
	if err != nil {
		return err
	}

	updated, err := fn(schedules)
	if err != nil {
		return err
	}

	return s.save(updated)
}

// save writes the schedule list atomically via a temp file.
func (s *Store) save(schedules []Schedule) error {
	file := scheduleFile{Schedules: make([]fileSchedule, 0, len(schedules))}
	for _, sched := range schedules {
		file.Schedules = append(file.Schedules, toFileSchedule(sched))
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return fmt.Errorf("encode schedules: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmpFile, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp schedules file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(buf.Bytes())
	if closeErr := tmpFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp schedules file: %w", err)
	}

	if err := os.Rename(name, s.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename schedules file: %w", err)
	}
	return nil
}

func toFileSchedule(sched Schedule) fileSchedule {
	days := make([]string, 0, len(sched.Weekdays))
	for _, day := range sched.Weekdays {
		days = append(days, day.String())
	}
	return fileSchedule{
		ID:       sched.ID,
		Name:     sched.Name,
		Message:  sched.Message,
		Start:    sched.Start.String(),
		End:      sched.End.String(),
		Weekdays: days,
		Enabled:  sched.Enabled,
	}
}

func (f fileSchedule) toSchedule() (Schedule, error) {
	start, err := ParseTimeOfDay(f.Start)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule %s: %w", f.ID, err)
	}
	end, err := ParseTimeOfDay(f.End)
	if err != nil {
		return Schedule{}, fmt.Errorf("schedule %s: %w", f.ID, err)
	}
	days := make([]time.Weekday, 0, len(f.Weekdays))
	for _, name := range f.Weekdays {
		day, err := ParseWeekday(name)
		if err != nil {
			return Schedule{}, fmt.Errorf("schedule %s: %w", f.ID, err)
		}
		days = append(days, day)
	}
	return Schedule{
		ID:       f.ID,
		Name:     f.Name,
		Message:  f.Message,
		Start:    start,
		End:      end,
		Weekdays: days,
		Enabled:  f.Enabled,
	}, nil
}
