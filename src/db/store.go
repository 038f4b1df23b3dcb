package db

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Config controls how a Store is opened.
type Config struct {
	Path        string // snapshot JSON file
	JournalPath string // mutation journal; empty disables it
	SchemaCheck bool   // validate the snapshot against the JSON Schema on load
}

// DefaultConfig returns a Config for the snapshot at path with schema
// validation enabled and no journal.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		SchemaCheck: true,
	}
}

// Store owns the in-memory snapshot and writes it back through its Database
// after every mutation. Every id passed in is re-validated here.
type Store struct {
	database Database
	journal  *Journal
	lock     sync.RWMutex
	state    *DBState
}

// EpicRecord pairs an epic with its id.
type EpicRecord struct {
	ID uint64
	Epic
}

// StoryRecord pairs a story with its id.
type StoryRecord struct {
	ID uint64
	Story
}

// Open loads the snapshot file described by cfg.
func Open(cfg Config) (*Store, error) {
	database := &JSONFileDatabase{
		FilePath:    cfg.Path,
		SchemaCheck: cfg.SchemaCheck,
	}
	return New(database, NewJournal(cfg.JournalPath))
}

// New reads the initial snapshot from database. journal may be nil.
func New(database Database, journal *Journal) (*Store, error) {
	state, err := database.Read()
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = NewDBState()
	}
	state.ensureMaps()

	return &Store{
		database: database,
		journal:  journal,
		state:    state,
	}, nil
}

// Close releases the journal.
func (s *Store) Close() error {
	return s.journal.Close()
}

// persist writes the full snapshot. On failure the in-memory mutation is kept
// and the returned error wraps ErrPersist. Callers must hold the write lock.
func (s *Store) persist(op string, epicID, storyID uint64) error {
	err := s.database.Write(s.state)
	s.journal.Record(op, epicID, storyID, err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// CreateEpic inserts an open epic and returns its new id. The id is valid even
// when the returned error reports a persistence failure. ErrIDsExhausted
// leaves the snapshot untouched.
func (s *Store) CreateEpic(name, description string) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	id, err := s.state.nextID()
	if err != nil {
		return 0, fmt.Errorf("create epic: %w", err)
	}
	s.state.Epics[id] = NewEpic(name, description)

	return id, s.persist("create_epic", id, 0)
}

// DeleteEpic removes the epic and every story it lists.
func (s *Store) DeleteEpic(id uint64) (Epic, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	epic, ok := s.state.Epics[id]
	if !ok {
		return Epic{}, fmt.Errorf("epic %d: %w", id, ErrNotFound)
	}

	for _, storyID := range epic.Stories {
		delete(s.state.Stories, storyID)
	}
	delete(s.state.Epics, id)

	return epic, s.persist("delete_epic", id, 0)
}

// UpdateEpicStatus overwrites the epic's status.
func (s *Store) UpdateEpicStatus(id uint64, status Status) (Epic, error) {
	if !status.Valid() {
		return Epic{}, fmt.Errorf("unknown status %q", status)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	epic, ok := s.state.Epics[id]
	if !ok {
		return Epic{}, fmt.Errorf("epic %d: %w", id, ErrNotFound)
	}
	epic.Status = status
	s.state.Epics[id] = epic

	return epic.clone(), s.persist("update_epic_status", id, 0)
}

// CreateStory appends a new open story to the epic and returns its id.
func (s *Store) CreateStory(epicID uint64, name, description string) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	epic, ok := s.state.Epics[epicID]
	if !ok {
		return 0, fmt.Errorf("epic %d: %w", epicID, ErrNotFound)
	}

	// one allocation feeds both the epic's list and the story map
	id, err := s.state.nextID()
	if err != nil {
		return 0, fmt.Errorf("create story in epic %d: %w", epicID, err)
	}
	epic.Stories = append(epic.Stories, id)
	s.state.Epics[epicID] = epic
	s.state.Stories[id] = NewStory(name, description)

	return id, s.persist("create_story", epicID, id)
}

// DeleteStory removes storyID from the epic's list and from the story map.
// The epic must exist, must list the story, and the story must exist.
// Remaining stories keep their order.
func (s *Store) DeleteStory(epicID, storyID uint64) (Story, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	epic, ok := s.state.Epics[epicID]
	if !ok {
		return Story{}, fmt.Errorf("epic %d: %w", epicID, ErrNotFound)
	}
	idx := slices.Index(epic.Stories, storyID)
	if idx < 0 {
		return Story{}, fmt.Errorf("story %d in epic %d: %w", storyID, epicID, ErrNotFound)
	}
	story, ok := s.state.Stories[storyID]
	if !ok {
		return Story{}, fmt.Errorf("story %d: %w", storyID, ErrNotFound)
	}

	epic.Stories = slices.Delete(slices.Clone(epic.Stories), idx, idx+1)
	s.state.Epics[epicID] = epic
	delete(s.state.Stories, storyID)

	return story, s.persist("delete_story", epicID, storyID)
}

// UpdateStoryStatus overwrites the story's status.
func (s *Store) UpdateStoryStatus(id uint64, status Status) (Story, error) {
	if !status.Valid() {
		return Story{}, fmt.Errorf("unknown status %q", status)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	story, ok := s.state.Stories[id]
	if !ok {
		return Story{}, fmt.Errorf("story %d: %w", id, ErrNotFound)
	}
	story.Status = status
	s.state.Stories[id] = story

	return story, s.persist("update_story_status", 0, id)
}

// GetEpicByID returns a copy of the epic.
func (s *Store) GetEpicByID(id uint64) (Epic, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	epic, ok := s.state.Epics[id]
	if !ok {
		return Epic{}, fmt.Errorf("epic %d: %w", id, ErrNotFound)
	}
	return epic.clone(), nil
}

// GetStoryByID returns a copy of the story.
func (s *Store) GetStoryByID(id uint64) (Story, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	story, ok := s.state.Stories[id]
	if !ok {
		return Story{}, fmt.Errorf("story %d: %w", id, ErrNotFound)
	}
	return story, nil
}

// ListEpics returns every epic ordered by id.
func (s *Store) ListEpics() []EpicRecord {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := make([]EpicRecord, 0, len(s.state.Epics))
	for _, id := range sortedKeys(s.state.Epics) {
		out = append(out, EpicRecord{ID: id, Epic: s.state.Epics[id].clone()})
	}
	return out
}

// ListStories returns the epic's stories in list order.
func (s *Store) ListStories(epicID uint64) ([]StoryRecord, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	epic, ok := s.state.Epics[epicID]
	if !ok {
		return nil, fmt.Errorf("epic %d: %w", epicID, ErrNotFound)
	}

	out := make([]StoryRecord, 0, len(epic.Stories))
	for _, id := range epic.Stories {
		story, ok := s.state.Stories[id]
		if !ok {
			return nil, fmt.Errorf("story %d: %w", id, ErrNotFound)
		}
		out = append(out, StoryRecord{ID: id, Story: story})
	}
	return out, nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *DBState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.Clone()
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	return slices.Sorted(maps.Keys(m))
}
