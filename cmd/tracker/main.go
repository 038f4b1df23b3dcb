package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/jira_cli/cmd/internal/logcfg"
	"github.com/danmuck/jira_cli/src/db"
	"github.com/danmuck/jira_cli/src/ui"
	logs "github.com/danmuck/smplog"
)

func main() {
	logs.Configure(logcfg.Load())

	cfg, err := resolveRuntimeConfig(os.Args[1:], defaultRuntimeConfig)
	if err != nil {
		fmt.Printf("Error: %v\n\n", err)
		printUsage(defaultRuntimeConfig)
		os.Exit(1)
	}

	// check reads the file itself so that a malformed snapshot is reported
	// problem by problem instead of failing the load.
	if cfg.Action == ActionCheck {
		printRuntimeSummary(cfg)
		clean, err := executeCheckAction(cfg)
		if err != nil {
			logs.Fatalf(err, "Check failed")
		}
		if !clean {
			os.Exit(1)
		}
		return
	}

	store, err := db.Open(cfg.storeConfig())
	if err != nil {
		logs.Fatalf(err, "Failed to load snapshot %s", cfg.DBPath)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logs.Warnf("failed to close journal: %v", err)
		}
	}()

	switch cfg.Action {
	case ActionStats:
		printRuntimeSummary(cfg)
		if err := executeStatsAction(cfg, store); err != nil {
			logs.Fatalf(err, "Failed to collect stats")
		}
	case ActionRun:
		if err := runInteractiveSession(cfg, store, os.Stdin); err != nil {
			logs.Fatalf(err, "Interactive session failed")
		}
	default:
		logs.Fatalf(fmt.Errorf("unsupported action: %s", cfg.Action), "Nothing to do")
	}
}

func runInteractiveSession(cfg RuntimeConfig, store *db.Store, input io.Reader) error {
	session := ui.NewSession(store, input, cfg.ClearScreen && isInteractiveReader(input))
	if err := session.Run(); err != nil {
		return err
	}
	logs.Println("Exited tracker.")
	return nil
}

func isInteractiveInput(r *os.File) bool {
	info, err := r.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func isInteractiveReader(input io.Reader) bool {
	file, ok := input.(*os.File)
	if !ok {
		return false
	}
	return isInteractiveInput(file)
}

func printRuntimeSummary(cfg RuntimeConfig) {
	logs.Printf("\n")
	logs.Field("Action", cfg.Action)
	logs.Printf("\n")
	logs.Field("Snapshot path", cfg.DBPath)
	logs.Printf("\n")
	journal := cfg.JournalPath
	if journal == "" {
		journal = "disabled"
	}
	logs.Field("Journal path", journal)
	logs.Printf("\n")
	logs.Field("Schema check", cfg.SchemaCheck)
	logs.Printf("\n")
}
