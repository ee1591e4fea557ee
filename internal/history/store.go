package history

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/pgEdge/filemigrate/internal/catalog"
	"github.com/pgEdge/filemigrate/internal/filesystem"
)

const baselineDirective = "baseline"

// Entry is one applied migration in the history file.
type Entry struct {
	ID       string `json:"id"`
	Sequence uint64 `json:"sequence"`
	// Position is the 0-based order in which the entry was applied.
	Position int `json:"position"`
	// AppliedAt is only set when the history line carries a timestamp.
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Baseline marks every migration at or below Sequence as applied, whether or
// not its file still exists.
type Baseline struct {
	Sequence uint64 `json:"sequence"`
	Summary  string `json:"summary,omitempty"`
}

func (b Baseline) line() string {
	line := fmt.Sprintf("%s %0*d", baselineDirective, catalog.IDWidth, b.Sequence)
	if summary := strings.Join(strings.Fields(b.Summary), " "); summary != "" {
		line += " " + summary
	}
	return line
}

// Store is the in-memory view of a history file. Changes are persisted before
// they become visible.
type Store struct {
	fs       afero.Fs
	path     string
	logger   zerolog.Logger
	loaded   bool
	contents []byte
	entries  []Entry
	index    map[string]int
	baseline *Baseline
}

func NewStore(fs afero.Fs, path string, logger zerolog.Logger) *Store {
	return &Store{
		fs:   fs,
		path: path,
		logger: logger.With().
			Str("component", "history_store").
			Str("path", path).
			Logger(),
		index: map[string]int{},
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the history file, replacing any state held in memory. A missing
// file is an empty history.
func (s *Store) Load() error {
	contents, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		contents = nil
	} else if err != nil {
		return fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}

	entries, baseline, err := s.parse(contents)
	if err != nil {
		return err
	}

	s.contents = contents
	s.entries = entries
	s.baseline = baseline
	s.index = make(map[string]int, len(entries))
	for i, entry := range entries {
		s.index[entry.ID] = i
	}
	s.loaded = true

	s.logger.Debug().
		Int("entries", len(entries)).
		Bool("baselined", baseline != nil).
		Msg("loaded history")

	return nil
}

func (s *Store) parse(contents []byte) ([]Entry, *Baseline, error) {
	var entries []Entry
	var baseline *Baseline
	seen := map[string]int{}

	for i, raw := range strings.Split(string(contents), "\n") {
		lineNum := i + 1
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		corrupt := func(reason string) error {
			return &CorruptHistoryError{
				Path:   s.path,
				Line:   lineNum,
				Text:   text,
				Reason: reason,
			}
		}

		fields := strings.Fields(text)
		if fields[0] == baselineDirective {
			if len(fields) < 2 {
				return nil, nil, corrupt("baseline is missing a sequence")
			}
			sequence, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return nil, nil, corrupt("invalid baseline sequence")
			}
			// The last baseline wins.
			baseline = &Baseline{
				Sequence: sequence,
				Summary:  strings.Join(fields[2:], " "),
			}
			continue
		}

		if len(fields) > 2 {
			return nil, nil, corrupt("expected a migration id and an optional timestamp")
		}
		sequence, _, err := catalog.ParseID(fields[0])
		if err != nil {
			return nil, nil, corrupt(err.Error())
		}
		if prev, ok := seen[fields[0]]; ok {
			return nil, nil, corrupt(fmt.Sprintf("duplicate of line %d", prev))
		}
		seen[fields[0]] = lineNum

		entry := Entry{
			ID:       fields[0],
			Sequence: sequence,
			Position: len(entries),
		}
		if len(fields) == 2 {
			appliedAt, err := time.Parse(time.RFC3339, fields[1])
			if err != nil {
				return nil, nil, corrupt("invalid timestamp")
			}
			entry.AppliedAt = &appliedAt
		}
		entries = append(entries, entry)
	}

	return entries, baseline, nil
}

// Entries returns the applied entries in application order.
func (s *Store) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

func (s *Store) Len() int {
	return len(s.entries)
}

func (s *Store) Get(id string) (Entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

func (s *Store) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Baseline returns the most recent baseline, if any.
func (s *Store) Baseline() (Baseline, bool) {
	if s.baseline == nil {
		return Baseline{}, false
	}
	return *s.baseline, true
}

// Append records id as applied. The history file is rewritten before Append
// returns; if that fails, the store is left as it was.
func (s *Store) Append(id string) (Entry, error) {
	if err := s.ensureLoaded(); err != nil {
		return Entry{}, err
	}

	sequence, _, err := catalog.ParseID(id)
	if err != nil {
		return Entry{}, err
	}
	if s.Contains(id) {
		return Entry{}, fmt.Errorf("%w: %s", ErrAlreadyRecorded, id)
	}

	entry := Entry{
		ID:       id,
		Sequence: sequence,
		Position: len(s.entries),
	}
	s.entries = append(s.entries, entry)
	s.index[id] = entry.Position

	if err := s.appendLine(id); err != nil {
		s.entries = s.entries[:entry.Position]
		delete(s.index, id)
		return Entry{}, err
	}

	s.logger.Debug().
		Str("migration_id", id).
		Msg("recorded migration in history")

	return entry, nil
}

// AppendBaseline records a baseline directive.
func (s *Store) AppendBaseline(baseline Baseline) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	previous := s.baseline
	s.baseline = &baseline

	if err := s.appendLine(baseline.line()); err != nil {
		s.baseline = previous
		return err
	}

	s.logger.Debug().
		Uint64("sequence", baseline.Sequence).
		Msg("recorded baseline in history")

	return nil
}

func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	return s.Load()
}

func (s *Store) appendLine(line string) error {
	var buf bytes.Buffer
	buf.Grow(len(s.contents) + len(line) + 2)
	buf.Write(s.contents)
	if len(s.contents) > 0 && s.contents[len(s.contents)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(line)
	buf.WriteByte('\n')

	if err := filesystem.WriteFileAtomic(s.fs, s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	s.contents = buf.Bytes()

	return nil
}
