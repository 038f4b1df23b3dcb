package db

import (
	"fmt"
	"math"
	"strings"
)

// Status is the workflow state shared by epics and stories.
// The string value is the literal tag written to the snapshot file.
type Status string

const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "InProgress"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// Statuses lists every status in prompt order (1-4).
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// Valid reports whether s is one of the four known tags.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Label returns the upper-case display form used in tables.
func (s Status) Label() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusInProgress:
		return "IN PROGRESS"
	case StatusResolved:
		return "RESOLVED"
	case StatusClosed:
		return "CLOSED"
	default:
		return strings.ToUpper(string(s))
	}
}

// StatusFromChoice maps a 1-based menu selection to a status.
func StatusFromChoice(choice string) (Status, bool) {
	switch strings.TrimSpace(choice) {
	case "1":
		return StatusOpen, true
	case "2":
		return StatusInProgress, true
	case "3":
		return StatusResolved, true
	case "4":
		return StatusClosed, true
	}
	return "", false
}

type Epic struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Stories     []uint64 `json:"stories"`
}

// NewEpic returns an open epic with no stories.
func NewEpic(name, description string) Epic {
	return Epic{
		Name:        name,
		Description: description,
		Status:      StatusOpen,
		Stories:     []uint64{},
	}
}

func (e Epic) clone() Epic {
	e.Stories = append([]uint64{}, e.Stories...)
	return e
}

type Story struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// NewStory returns an open story.
func NewStory(name, description string) Story {
	return Story{
		Name:        name,
		Description: description,
		Status:      StatusOpen,
	}
}

// DBState is the whole snapshot: id counter plus both record maps.
// Map keys are the stringified ids encoding/json produces for uint64 keys.
type DBState struct {
	LastItemID uint64           `json:"last_item_id"`
	Epics      map[uint64]Epic  `json:"epics"`
	Stories    map[uint64]Story `json:"stories"`
}

// NewDBState returns an empty snapshot.
func NewDBState() *DBState {
	return &DBState{
		LastItemID: 0,
		Epics:      make(map[uint64]Epic),
		Stories:    make(map[uint64]Story),
	}
}

// nextID advances the counter. It never wraps: ids stay strictly increasing
// and 0 is never issued.
func (s *DBState) nextID() (uint64, error) {
	if s.LastItemID == math.MaxUint64 {
		return 0, ErrIDsExhausted
	}
	s.LastItemID++
	return s.LastItemID, nil
}

// Clone returns a deep copy of the snapshot.
func (s *DBState) Clone() *DBState {
	out := &DBState{
		LastItemID: s.LastItemID,
		Epics:      make(map[uint64]Epic, len(s.Epics)),
		Stories:    make(map[uint64]Story, len(s.Stories)),
	}
	for id, epic := range s.Epics {
		out.Epics[id] = epic.clone()
	}
	for id, story := range s.Stories {
		out.Stories[id] = story
	}
	return out
}

// ensureMaps replaces nil maps left by a decoder with empty ones.
func (s *DBState) ensureMaps() {
	if s.Epics == nil {
		s.Epics = make(map[uint64]Epic)
	}
	if s.Stories == nil {
		s.Stories = make(map[uint64]Story)
	}
	for id, epic := range s.Epics {
		if epic.Stories == nil {
			epic.Stories = []uint64{}
			s.Epics[id] = epic
		}
	}
}

// ValidationError locates a single problem inside a snapshot.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// CheckIntegrity returns every referential-integrity violation in the snapshot:
// listed stories must exist, each story must be listed by exactly one epic,
// statuses must be known, ids start at 1, and last_item_id must cover every
// allocated id while leaving room for the next one.
func (s *DBState) CheckIntegrity() []error {
	var problems []error

	if s.LastItemID == math.MaxUint64 {
		problems = append(problems, &ValidationError{Path: "last_item_id", Err: ErrIDsExhausted})
	}

	owners := make(map[uint64]uint64, len(s.Stories))
	for _, epicID := range sortedKeys(s.Epics) {
		epic := s.Epics[epicID]
		path := fmt.Sprintf("epics.%d", epicID)
		if !epic.Status.Valid() {
			problems = append(problems, &ValidationError{Path: path + ".status", Err: fmt.Errorf("unknown status %q", epic.Status)})
		}
		if epicID == 0 {
			problems = append(problems, &ValidationError{Path: path, Err: fmt.Errorf("id must be at least 1")})
		}
		if epicID > s.LastItemID {
			problems = append(problems, &ValidationError{Path: path, Err: fmt.Errorf("id exceeds last_item_id %d", s.LastItemID)})
		}
		for i, storyID := range epic.Stories {
			storyPath := fmt.Sprintf("%s.stories[%d]", path, i)
			if _, ok := s.Stories[storyID]; !ok {
				problems = append(problems, &ValidationError{Path: storyPath, Err: fmt.Errorf("story %d does not exist", storyID)})
				continue
			}
			if prev, dup := owners[storyID]; dup {
				problems = append(problems, &ValidationError{Path: storyPath, Err: fmt.Errorf("story %d already listed by epic %d", storyID, prev)})
				continue
			}
			owners[storyID] = epicID
		}
	}

	for _, storyID := range sortedKeys(s.Stories) {
		story := s.Stories[storyID]
		path := fmt.Sprintf("stories.%d", storyID)
		if !story.Status.Valid() {
			problems = append(problems, &ValidationError{Path: path + ".status", Err: fmt.Errorf("unknown status %q", story.Status)})
		}
		if storyID == 0 {
			problems = append(problems, &ValidationError{Path: path, Err: fmt.Errorf("id must be at least 1")})
		}
		if storyID > s.LastItemID {
			problems = append(problems, &ValidationError{Path: path, Err: fmt.Errorf("id exceeds last_item_id %d", s.LastItemID)})
		}
		if _, ok := s.Epics[storyID]; ok {
			problems = append(problems, &ValidationError{Path: path, Err: fmt.Errorf("id %d is also an epic", storyID)})
		}
		if _, owned := owners[storyID]; !owned {
			problems = append(problems, &ValidationError{Path: path, Err: fmt.Errorf("story is not listed by any epic")})
		}
	}

	return problems
}
