package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/jira_cli/src/db"
	logs "github.com/danmuck/smplog"
)

type StatusCounts map[db.Status]int

type TrackerStats struct {
	Epics        int
	Stories      int
	LastItemID   uint64
	EpicStatus   StatusCounts
	StoryStatus  StatusCounts
	EmptyEpics   int
	SnapshotPath string
	// SnapshotBytes is zero when the file has not been written yet.
	SnapshotBytes uint64
}

func collectTrackerStats(state *db.DBState, snapshotPath string) (TrackerStats, error) {
	stats := TrackerStats{
		Epics:        len(state.Epics),
		Stories:      len(state.Stories),
		LastItemID:   state.LastItemID,
		EpicStatus:   StatusCounts{},
		StoryStatus:  StatusCounts{},
		SnapshotPath: filepath.Clean(snapshotPath),
	}

	for _, epic := range state.Epics {
		stats.EpicStatus[epic.Status]++
		if len(epic.Stories) == 0 {
			stats.EmptyEpics++
		}
	}
	for _, story := range state.Stories {
		stats.StoryStatus[story.Status]++
	}

	info, err := os.Stat(snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to stat snapshot %s: %w", snapshotPath, err)
	}
	if info.Size() > 0 {
		stats.SnapshotBytes = uint64(info.Size())
	}
	return stats, nil
}

func executeStatsAction(cfg RuntimeConfig, store *db.Store) error {
	stats, err := collectTrackerStats(store.Snapshot(), cfg.DBPath)
	if err != nil {
		return err
	}

	logs.Titlef("\nTracker Stats\n")
	logs.DataKV("Generated at", time.Now().Format(time.RFC3339))
	logs.DataKV("Snapshot", stats.SnapshotPath)
	logs.DataKV("Snapshot size", formatBytes(stats.SnapshotBytes))
	logs.DataKV("Last item id", fmt.Sprintf("%d", stats.LastItemID))

	logs.Titlef("\nEpics: %d\n", stats.Epics)
	printStatusCounts(stats.EpicStatus)
	logs.DataKV("without stories", fmt.Sprintf("%d", stats.EmptyEpics))

	logs.Titlef("\nStories: %d\n", stats.Stories)
	printStatusCounts(stats.StoryStatus)

	return nil
}

func printStatusCounts(counts StatusCounts) {
	for _, status := range db.Statuses {
		logs.DataKV(status.Label(), fmt.Sprintf("%d", counts[status]))
	}
}

func formatBytes(value uint64) string {
	if value == 0 {
		return "0 B"
	}

	units := []string{"B", "KiB", "MiB", "GiB", "TiB"}
	size := float64(value)
	unitIdx := 0
	for size >= 1024 && unitIdx < len(units)-1 {
		size /= 1024
		unitIdx++
	}

	if unitIdx == 0 {
		return fmt.Sprintf("%d %s", value, units[unitIdx])
	}

	formatted := fmt.Sprintf("%.2f", size)
	formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	return fmt.Sprintf("%s %s", formatted, units[unitIdx])
}
