package db

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readJournalLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry), "journal line %q", scanner.Text())
		lines = append(lines, entry)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestJournalRecordsMutations(t *testing.T) {
	var buf bytes.Buffer
	mem := &memDatabase{}
	s, err := New(mem, newJournalWriter(&buf, nil))
	require.NoError(t, err)

	epicID, err := s.CreateEpic("A", "")
	require.NoError(t, err)
	storyID, err := s.CreateStory(epicID, "S", "")
	require.NoError(t, err)
	_, err = s.DeleteStory(epicID, storyID)
	require.NoError(t, err)

	// lookups and failed validation are not journaled
	_, _ = s.GetEpicByID(epicID)
	_, _ = s.DeleteEpic(404)

	lines := readJournalLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "create_epic", lines[0]["op"])
	assert.Equal(t, float64(epicID), lines[0]["epic_id"])
	assert.NotContains(t, lines[0], "story_id")

	assert.Equal(t, "create_story", lines[1]["op"])
	assert.Equal(t, float64(storyID), lines[1]["story_id"])

	assert.Equal(t, "delete_story", lines[2]["op"])
	for _, line := range lines {
		assert.Equal(t, "store", line["component"])
		assert.Equal(t, "info", line["level"])
		assert.Contains(t, line, "time")
	}
}

func TestJournalRecordsPersistFailure(t *testing.T) {
	var buf bytes.Buffer
	mem := &memDatabase{writeErr: errors.New("read-only file system")}
	s, err := New(mem, newJournalWriter(&buf, nil))
	require.NoError(t, err)

	_, err = s.CreateEpic("A", "")
	require.ErrorIs(t, err, ErrPersist)

	lines := readJournalLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "read-only file system", lines[0]["error"])
}

func TestNewJournalDisabledAndFileBacked(t *testing.T) {
	disabled := NewJournal("  ")
	disabled.Record("create_epic", 1, 0, nil)
	assert.NoError(t, disabled.Close())

	var nilJournal *Journal
	nilJournal.Record("create_epic", 1, 0, nil)
	assert.NoError(t, nilJournal.Close())

	path := filepath.Join(t.TempDir(), "logs", "journal.log")
	s, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "db.json"),
		JournalPath: path,
		SchemaCheck: true,
	})
	require.NoError(t, err)
	_, err = s.CreateEpic("A", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}
