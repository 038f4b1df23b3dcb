package db

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDatabase keeps the snapshot in memory and counts writes.
type memDatabase struct {
	initial  *DBState
	written  *DBState
	writes   int
	writeErr error
}

func (m *memDatabase) Read() (*DBState, error) {
	if m.initial == nil {
		return NewDBState(), nil
	}
	return m.initial.Clone(), nil
}

func (m *memDatabase) Write(state *DBState) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = state.Clone()
	return nil
}

// newTestStore creates a Store backed by memDatabase.
func newTestStore(t *testing.T) (*Store, *memDatabase) {
	t.Helper()
	mem := &memDatabase{}
	s, err := New(mem, nil)
	require.NoError(t, err)
	return s, mem
}

func TestCreateEpic(t *testing.T) {
	s, mem := newTestStore(t)

	id, err := s.CreateEpic("Epic - Project 1", "This is a project!")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	epic, err := s.GetEpicByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Epic - Project 1", epic.Name)
	assert.Equal(t, "This is a project!", epic.Description)
	assert.Equal(t, StatusOpen, epic.Status)
	assert.Empty(t, epic.Stories)

	assert.Equal(t, 1, mem.writes, "create should persist once")
	require.NotNil(t, mem.written)
	assert.Equal(t, uint64(1), mem.written.LastItemID)
	assert.Contains(t, mem.written.Epics, id)
}

func TestCreateStory_InvalidEpic(t *testing.T) {
	s, mem := newTestStore(t)

	_, err := s.CreateStory(999, "S", "d")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, mem.writes)
	assert.Equal(t, uint64(0), s.Snapshot().LastItemID, "failed create must not allocate an id")
}

func TestCreateStory_PairsIDWithEpic(t *testing.T) {
	s, _ := newTestStore(t)

	epicID, err := s.CreateEpic("A", "d")
	require.NoError(t, err)

	first, err := s.CreateStory(epicID, "S1", "d")
	require.NoError(t, err)
	second, err := s.CreateStory(epicID, "S2", "d")
	require.NoError(t, err)

	epic, err := s.GetEpicByID(epicID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{first, second}, epic.Stories)

	story, err := s.GetStoryByID(second)
	require.NoError(t, err)
	assert.Equal(t, "S2", story.Name)
	assert.Equal(t, StatusOpen, story.Status)

	assert.Empty(t, s.Snapshot().CheckIntegrity())
}

func TestStoryLifecycleScenario(t *testing.T) {
	s, _ := newTestStore(t)

	epicID, err := s.CreateEpic("A", "d")
	require.NoError(t, err)
	require.Equal(t, uint64(1), epicID)

	storyID, err := s.CreateStory(1, "S", "d")
	require.NoError(t, err)
	require.Equal(t, uint64(2), storyID)

	epic, err := s.GetEpicByID(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, epic.Stories)

	removed, err := s.DeleteStory(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "S", removed.Name)

	epic, err = s.GetEpicByID(1)
	require.NoError(t, err)
	assert.Empty(t, epic.Stories)

	_, err = s.GetStoryByID(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEpic_CascadesStories(t *testing.T) {
	s, _ := newTestStore(t)

	keep, err := s.CreateEpic("keep", "")
	require.NoError(t, err)
	keepStory, err := s.CreateStory(keep, "kept", "")
	require.NoError(t, err)

	doomed, err := s.CreateEpic("doomed", "")
	require.NoError(t, err)
	const n = 3
	var doomedStories []uint64
	for i := 0; i < n; i++ {
		id, err := s.CreateStory(doomed, "story", "")
		require.NoError(t, err)
		doomedStories = append(doomedStories, id)
	}

	before := len(s.Snapshot().Stories)
	removed, err := s.DeleteEpic(doomed)
	require.NoError(t, err)
	assert.Equal(t, doomedStories, removed.Stories)

	after := s.Snapshot()
	assert.Equal(t, before-n, len(after.Stories))
	for _, id := range doomedStories {
		assert.NotContains(t, after.Stories, id)
	}
	assert.Contains(t, after.Stories, keepStory)
	assert.NotContains(t, after.Epics, doomed)
	assert.Empty(t, after.CheckIntegrity())
}

func TestDeleteEpic_NotFound(t *testing.T) {
	s, mem := newTestStore(t)

	_, err := s.DeleteEpic(42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, mem.writes)
}

func TestDeleteStory_ResolutionFailures(t *testing.T) {
	// epic 1 lists story 3 which is missing from the story map;
	// story 2 exists but is listed by epic 4, not epic 1
	inconsistent := &DBState{
		LastItemID: 4,
		Epics: map[uint64]Epic{
			1: {Name: "one", Status: StatusOpen, Stories: []uint64{3}},
			4: {Name: "four", Status: StatusOpen, Stories: []uint64{2}},
		},
		Stories: map[uint64]Story{
			2: {Name: "two", Status: StatusOpen},
		},
	}

	tests := []struct {
		name    string
		epicID  uint64
		storyID uint64
		wantMsg string
	}{
		{name: "epic missing", epicID: 9, storyID: 2, wantMsg: "epic 9"},
		{name: "story not listed by epic", epicID: 1, storyID: 2, wantMsg: "story 2 in epic 1"},
		{name: "listed story missing from map", epicID: 1, storyID: 3, wantMsg: "story 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &memDatabase{initial: inconsistent}
			s, err := New(mem, nil)
			require.NoError(t, err)

			before := s.Snapshot()
			_, err = s.DeleteStory(tt.epicID, tt.storyID)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, before, s.Snapshot(), "failed delete must not mutate")
			assert.Equal(t, 0, mem.writes)
		})
	}
}

func TestDeleteStory_PreservesOrder(t *testing.T) {
	s, _ := newTestStore(t)

	epicID, err := s.CreateEpic("A", "")
	require.NoError(t, err)
	var ids []uint64
	for i := 0; i < 4; i++ {
		id, err := s.CreateStory(epicID, "s", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err = s.DeleteStory(epicID, ids[1])
	require.NoError(t, err)

	epic, err := s.GetEpicByID(epicID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{ids[0], ids[2], ids[3]}, epic.Stories)
}

func TestUpdateStatus(t *testing.T) {
	s, _ := newTestStore(t)

	epicID, err := s.CreateEpic("A", "")
	require.NoError(t, err)
	storyID, err := s.CreateStory(epicID, "S", "")
	require.NoError(t, err)

	epic, err := s.UpdateEpicStatus(epicID, StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, epic.Status)

	story, err := s.UpdateStoryStatus(storyID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, story.Status)

	got, err := s.GetStoryByID(storyID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	_, err = s.UpdateStoryStatus(storyID, Status("Todo"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUpdateEpicStatus_NotFoundLeavesSnapshotUnchanged(t *testing.T) {
	s, mem := newTestStore(t)

	_, err := s.CreateEpic("A", "d")
	require.NoError(t, err)
	writes := mem.writes
	before := s.Snapshot()

	_, err = s.UpdateEpicStatus(99, StatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, writes, mem.writes)

	_, err = s.UpdateStoryStatus(99, StatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIDsAreNeverReused(t *testing.T) {
	s, _ := newTestStore(t)

	seen := make(map[uint64]bool)
	var last uint64
	issue := func(id uint64, err error) uint64 {
		t.Helper()
		require.NoError(t, err)
		require.False(t, seen[id], "id %d issued twice", id)
		require.Greater(t, id, last, "ids must increase")
		seen[id] = true
		last = id
		return id
	}

	epic := issue(s.CreateEpic("a", ""))
	story := issue(s.CreateStory(epic, "s", ""))
	_, err := s.DeleteStory(epic, story)
	require.NoError(t, err)
	_, err = s.DeleteEpic(epic)
	require.NoError(t, err)

	epic = issue(s.CreateEpic("b", ""))
	issue(s.CreateStory(epic, "s", ""))
	assert.Equal(t, last, s.Snapshot().LastItemID)
}

func TestIDsContinueAfterLoadedCounter(t *testing.T) {
	mem := &memDatabase{initial: &DBState{
		LastItemID: 41,
		Epics:      map[uint64]Epic{},
		Stories:    map[uint64]Story{},
	}}
	s, err := New(mem, nil)
	require.NoError(t, err)

	id, err := s.CreateEpic("a", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestIDsDoNotWrapAtCounterLimit(t *testing.T) {
	mem := &memDatabase{initial: &DBState{
		LastItemID: math.MaxUint64 - 1,
		Epics:      map[uint64]Epic{},
		Stories:    map[uint64]Story{},
	}}
	s, err := New(mem, nil)
	require.NoError(t, err)

	last, err := s.CreateEpic("last", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), last)
	writes := mem.writes

	id, err := s.CreateEpic("wrapped", "")
	assert.ErrorIs(t, err, ErrIDsExhausted)
	assert.Equal(t, uint64(0), id)

	_, err = s.CreateStory(last, "wrapped", "")
	assert.ErrorIs(t, err, ErrIDsExhausted)

	snap := s.Snapshot()
	assert.Equal(t, uint64(math.MaxUint64), snap.LastItemID)
	assert.Len(t, snap.Epics, 1)
	assert.Empty(t, snap.Stories)
	assert.Empty(t, snap.Epics[last].Stories)
	assert.Equal(t, writes, mem.writes, "a refused allocation must not persist")
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	s, mem := newTestStore(t)
	mem.writeErr = errors.New("disk full")

	id, err := s.CreateEpic("A", "d")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "disk full")

	epic, getErr := s.GetEpicByID(id)
	require.NoError(t, getErr, "in-memory mutation must be kept")
	assert.Equal(t, "A", epic.Name)

	mem.writeErr = nil
	_, err = s.UpdateEpicStatus(id, StatusResolved)
	require.NoError(t, err)
	require.NotNil(t, mem.written)
	assert.Equal(t, StatusResolved, mem.written.Epics[id].Status)
}

func TestOpen_RoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")

	s, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	epicID, err := s.CreateEpic("A", "d")
	require.NoError(t, err)
	storyID, err := s.CreateStory(epicID, "S", "d")
	require.NoError(t, err)
	_, err = s.UpdateStoryStatus(storyID, StatusResolved)
	require.NoError(t, err)
	want := s.Snapshot()
	require.NoError(t, s.Close())

	reopened, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, want, reopened.Snapshot())

	next, err := reopened.CreateEpic("B", "")
	require.NoError(t, err)
	assert.Equal(t, storyID+1, next)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := newTestStore(t)

	epicID, err := s.CreateEpic("A", "")
	require.NoError(t, err)
	_, err = s.CreateStory(epicID, "S", "")
	require.NoError(t, err)

	snap := s.Snapshot()
	epic := snap.Epics[epicID]
	epic.Stories[0] = 999
	snap.Epics[epicID] = epic

	got, err := s.GetEpicByID(epicID)
	require.NoError(t, err)
	assert.NotEqual(t, uint64(999), got.Stories[0])
}
