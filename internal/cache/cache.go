package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bighogz/insider-ingest/internal/logging"
	"github.com/bighogz/insider-ingest/internal/models"
)

type Options struct {
	Enabled bool
	Dir     string
	MaxAge  time.Duration
}

// Store keeps one JSON snapshot per work unit. Units own distinct files, so
// no locking is needed across units.
type Store struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func New(opts Options, logger *slog.Logger) *Store {
	return &Store{opts: opts, logger: logging.OrDiscard(logger), now: time.Now}
}

// WithClock overrides the time source used for freshness checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Enabled() bool { return s != nil && s.opts.Enabled }

func (s *Store) Path(unit models.WorkUnit) string {
	return filepath.Join(s.opts.Dir, fmt.Sprintf("data_%d_%d.json", unit.Year, int(unit.Month)))
}

// Fresh reports whether the entry exists and is younger than MaxAge.
func (s *Store) Fresh(unit models.WorkUnit) bool {
	info, err := os.Stat(s.Path(unit))
	if err != nil {
		return false
	}
	return s.now().Sub(info.ModTime()) < s.opts.MaxAge
}

// Load returns the unit's cached records. ok is false on a miss: caching
// disabled, no entry, a stale entry, or one that cannot be decoded.
func (s *Store) Load(unit models.WorkUnit) (models.RecordSet, bool) {
	if !s.Enabled() || !s.Fresh(unit) {
		return nil, false
	}
	path := s.Path(unit)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var rows [][]string
	if err := json.Unmarshal(data, &rows); err != nil {
		s.logger.Warn("ignoring unreadable cache entry", "path", path, "error", err)
		return nil, false
	}
	set := make(models.RecordSet, len(rows))
	for _, row := range rows {
		r, err := models.RecordFromFields(row)
		if err != nil {
			s.logger.Warn("ignoring unreadable cache entry", "path", path, "error", err)
			return nil, false
		}
		set.Add(r)
	}
	return set, true
}

// Save overwrites the unit's entry. It is a no-op when caching is disabled.
func (s *Store) Save(unit models.WorkUnit, set models.RecordSet) error {
	if !s.Enabled() {
		return nil
	}
	if err := os.MkdirAll(s.opts.Dir, 0755); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}
	records := set.Slice()
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = r.Fields()
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	path := s.Path(unit)
	tmp, err := os.CreateTemp(s.opts.Dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}
