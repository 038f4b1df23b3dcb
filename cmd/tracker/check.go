package main

import (
	"fmt"

	"github.com/danmuck/jira_cli/src/db"
	logs "github.com/danmuck/smplog"
)

// executeCheckAction validates the snapshot file against the schema and the
// integrity rules. It reports false when any problem was found.
func executeCheckAction(cfg RuntimeConfig) (bool, error) {
	database := &db.JSONFileDatabase{FilePath: cfg.DBPath, SchemaCheck: true}
	problems, err := database.Check()
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot: %w", err)
	}

	logs.Titlef("\nSnapshot Check\n")
	logs.DataKV("Snapshot", cfg.DBPath)
	if len(problems) == 0 {
		logs.StatusInfo("No problems found.")
		logs.Printf("\n")
		return true, nil
	}

	logs.StatusWarn(fmt.Sprintf("%d problem(s) found:", len(problems)))
	logs.Printf("\n")
	for idx, problem := range problems {
		logs.Dataf("  %d: %v\n", idx+1, problem)
	}
	return false, nil
}
