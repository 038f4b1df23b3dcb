// gen_db generates a populated tracker snapshot for manual testing.
//
// Usage:
//
//	go run cmd/gen_db/main.go <epics>x<stories> [filename]
//
// The shape "3x5" creates 3 epics with 5 stories each. A bare number creates
// that many epics with no stories. If no filename is given, the snapshot is
// written under data/ with a name derived from the shape. An existing file is
// left untouched.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danmuck/jira_cli/src/db"
)

const DefaultOutputDir = "data"

type shape struct {
	Epics   int
	Stories int
}

func parseShape(s string) (shape, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	epicsRaw, storiesRaw, hasStories := strings.Cut(s, "x")

	epics, err := strconv.Atoi(epicsRaw)
	if err != nil || epics < 0 {
		return shape{}, fmt.Errorf("invalid epic count %q", epicsRaw)
	}
	if !hasStories {
		return shape{Epics: epics}, nil
	}

	stories, err := strconv.Atoi(storiesRaw)
	if err != nil || stories < 0 {
		return shape{}, fmt.Errorf("invalid story count %q", storiesRaw)
	}
	return shape{Epics: epics, Stories: stories}, nil
}

func (s shape) label() string {
	return fmt.Sprintf("%dx%d", s.Epics, s.Stories)
}

// statusFor spreads items across every status so generated tables show all labels.
func statusFor(n int) db.Status {
	return db.Statuses[n%len(db.Statuses)]
}

// populate builds the snapshot through a Store so ids and story lists follow
// the same rules as interactive edits. Only the final state is written.
func populate(sh shape) (*db.DBState, error) {
	mem := &memoryDatabase{}
	store, err := db.New(mem, nil)
	if err != nil {
		return nil, err
	}

	for e := range sh.Epics {
		epicID, err := store.CreateEpic(
			fmt.Sprintf("Epic - Project %d", e+1),
			fmt.Sprintf("Generated epic %d of %d.", e+1, sh.Epics),
		)
		if err != nil {
			return nil, err
		}
		if _, err := store.UpdateEpicStatus(epicID, statusFor(e)); err != nil {
			return nil, err
		}

		for s := range sh.Stories {
			storyID, err := store.CreateStory(
				epicID,
				fmt.Sprintf("Story - Task %d.%d", e+1, s+1),
				fmt.Sprintf("Generated story %d for epic %d.", s+1, epicID),
			)
			if err != nil {
				return nil, err
			}
			if _, err := store.UpdateStoryStatus(storyID, statusFor(s)); err != nil {
				return nil, err
			}
		}
	}
	return store.Snapshot(), nil
}

// memoryDatabase starts empty and discards writes.
type memoryDatabase struct{}

func (memoryDatabase) Read() (*db.DBState, error) { return db.NewDBState(), nil }
func (memoryDatabase) Write(*db.DBState) error    { return nil }

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: gen_db <epics>x<stories> [filename]\n")
		fmt.Fprintf(os.Stderr, "  Examples: 3x5, 40x2, 10\n")
		fmt.Fprintf(os.Stderr, "  Default output dir when filename omitted: %s/\n", DefaultOutputDir)
		os.Exit(1)
	}

	sh, err := parseShape(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	filename := ""
	if len(os.Args) >= 3 {
		filename = os.Args[2]
	} else {
		filename = filepath.Join(DefaultOutputDir, fmt.Sprintf("db_%s.json", sh.label()))
	}

	if _, err := os.Stat(filename); err == nil {
		fmt.Printf("Reusing existing file: %s\n", filename)
		return
	}

	fmt.Printf("Generating %s (%d epics, %d stories each)...\n", filename, sh.Epics, sh.Stories)

	state, err := populate(sh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building snapshot: %v\n", err)
		os.Exit(1)
	}

	database := &db.JSONFileDatabase{FilePath: filename}
	if err := database.Write(state); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated: %s (last_item_id %d)\n", filename, state.LastItemID)
}
