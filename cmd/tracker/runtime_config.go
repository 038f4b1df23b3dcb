package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/jira_cli/src/db"
)

type TrackerAction string

const (
	ActionRun   TrackerAction = "run"
	ActionStats TrackerAction = "stats"
	ActionCheck TrackerAction = "check"
)

const (
	defaultDBPath      = "./data/db.json"
	defaultJournalPath = "./data/journal.log"
	defaultConfigPath  = "./data/tracker.toml"
)

type RuntimeConfig struct {
	DBPath         string
	JournalPath    string
	ConfigPath     string
	ConfigProvided bool
	ClearScreen    bool
	SchemaCheck    bool
	Action         TrackerAction
	ActionProvided bool
}

func defaultConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:      defaultDBPath,
		JournalPath: defaultJournalPath,
		ConfigPath:  defaultConfigPath,
		ClearScreen: true,
		SchemaCheck: true,
		Action:      ActionRun,
	}
}

var defaultRuntimeConfig = defaultConfig()

func (c RuntimeConfig) storeConfig() db.Config {
	cfg := db.DefaultConfig(c.DBPath)
	cfg.JournalPath = c.JournalPath
	cfg.SchemaCheck = c.SchemaCheck
	return cfg
}

// trackerFile mirrors tracker.toml. Pointer fields distinguish absent keys
// from zero values.
type trackerFile struct {
	DBPath      *string `toml:"db_path"`
	JournalPath *string `toml:"journal_path"`
	ClearScreen *bool   `toml:"clear_screen"`
	SchemaCheck *bool   `toml:"schema_check"`
}

func (f trackerFile) apply(cfg RuntimeConfig) RuntimeConfig {
	if f.DBPath != nil {
		cfg.DBPath = strings.TrimSpace(*f.DBPath)
	}
	if f.JournalPath != nil {
		cfg.JournalPath = strings.TrimSpace(*f.JournalPath)
	}
	if f.ClearScreen != nil {
		cfg.ClearScreen = *f.ClearScreen
	}
	if f.SchemaCheck != nil {
		cfg.SchemaCheck = *f.SchemaCheck
	}
	return cfg
}

// loadTrackerConfig decodes path. A missing file is only an error when
// required is set.
func loadTrackerConfig(path string, required bool) (trackerFile, error) {
	var file trackerFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return trackerFile{}, nil
		}
		return trackerFile{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return trackerFile{}, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	return file, nil
}

// resolveRuntimeConfig layers defaults, tracker.toml, then CLI flags. Flags
// are read twice: once to find --config, once over the file values.
func resolveRuntimeConfig(args []string, base RuntimeConfig) (RuntimeConfig, error) {
	cliCfg, err := parseCLI(args, base)
	if err != nil {
		return cliCfg, err
	}

	file, err := loadTrackerConfig(cliCfg.ConfigPath, cliCfg.ConfigProvided)
	if err != nil {
		return cliCfg, err
	}

	layered := file.apply(base)
	layered.ConfigPath = cliCfg.ConfigPath
	layered.ConfigProvided = cliCfg.ConfigProvided
	return parseCLI(args, layered)
}

const DB_FLAG = "--db"
const JOURNAL_FLAG = "--journal"
const CONFIG_FLAG = "--config"
const NO_CLEAR_FLAG = "--no-clear"
const NO_SCHEMA_FLAG = "--no-schema"

// flagValue reads "--flag VALUE" or "--flag=VALUE" starting at args[i] and
// returns the index of the last consumed argument.
func flagValue(args []string, i int, flag string) (string, int, bool, error) {
	arg := args[i]
	if arg == flag {
		if i+1 >= len(args) {
			return "", i, true, fmt.Errorf("missing value after %q", flag)
		}
		return strings.TrimSpace(args[i+1]), i + 1, true, nil
	}
	if after, ok := strings.CutPrefix(arg, flag+"="); ok {
		return strings.TrimSpace(after), i, true, nil
	}
	return "", i, false, nil
}

func parseCLI(args []string, cfg RuntimeConfig) (RuntimeConfig, error) {
	runtimeCfg := cfg
	actionProvided := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == NO_CLEAR_FLAG {
			runtimeCfg.ClearScreen = false
			continue
		}

		if arg == NO_SCHEMA_FLAG {
			runtimeCfg.SchemaCheck = false
			continue
		}

		value, next, matched, err := flagValue(args, i, DB_FLAG)
		if err != nil {
			return runtimeCfg, err
		}
		if matched {
			if value == "" {
				return runtimeCfg, fmt.Errorf("%s must not be empty", DB_FLAG)
			}
			runtimeCfg.DBPath = value
			i = next
			continue
		}

		value, next, matched, err = flagValue(args, i, JOURNAL_FLAG)
		if err != nil {
			return runtimeCfg, err
		}
		if matched {
			runtimeCfg.JournalPath = value
			i = next
			continue
		}

		value, next, matched, err = flagValue(args, i, CONFIG_FLAG)
		if err != nil {
			return runtimeCfg, err
		}
		if matched {
			if value == "" {
				return runtimeCfg, fmt.Errorf("%s must not be empty", CONFIG_FLAG)
			}
			runtimeCfg.ConfigPath = value
			runtimeCfg.ConfigProvided = true
			i = next
			continue
		}

		normalized := strings.ToLower(strings.TrimSpace(arg))
		switch normalized {
		case string(ActionRun), string(ActionStats), "stat", string(ActionCheck), "verify":
			if actionProvided {
				return runtimeCfg, fmt.Errorf("multiple actions provided: %q", arg)
			}
			runtimeCfg.Action = normalizeAction(normalized)
			runtimeCfg.ActionProvided = true
			actionProvided = true
		default:
			return runtimeCfg, fmt.Errorf("unsupported argument %q", arg)
		}
	}

	if runtimeCfg.DBPath == "" {
		return runtimeCfg, fmt.Errorf("database path must not be empty")
	}

	return runtimeCfg, nil
}

func normalizeAction(choice string) TrackerAction {
	switch choice {
	case "stat":
		return ActionStats
	case "verify":
		return ActionCheck
	}
	return TrackerAction(choice)
}

func printUsage(cfg RuntimeConfig) {
	fmt.Printf("Usage: tracker [run|stats|check] [%s PATH] [%s PATH] [%s PATH] [%s] [%s]\n",
		DB_FLAG,
		JOURNAL_FLAG,
		CONFIG_FLAG,
		NO_CLEAR_FLAG,
		NO_SCHEMA_FLAG,
	)
	fmt.Printf("No action defaults to %q.\n", cfg.Action)
	fmt.Printf("Snapshot file defaults to %s; override with %q.\n", cfg.DBPath, DB_FLAG)
	fmt.Printf("Mutation journal defaults to %s; pass %s= to disable it.\n", cfg.JournalPath, JOURNAL_FLAG)
	fmt.Printf("Settings are read from %s when present; override with %q.\n", cfg.ConfigPath, CONFIG_FLAG)
	fmt.Printf("Screen clearing defaults to enabled; disable with %q.\n", NO_CLEAR_FLAG)
	fmt.Printf("Schema validation on load defaults to enabled; disable with %q.\n", NO_SCHEMA_FLAG)
	fmt.Println("Actions: run (interactive tracker), stats (counts per status + snapshot size), check (validate the snapshot file and list every problem).")
}
