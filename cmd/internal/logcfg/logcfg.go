package logcfg

import (
	"os"

	logs "github.com/danmuck/smplog"
)

// Environment variables checked in order before the file candidates.
var envConfigPaths = []string{"TRACKER_LOG_CONFIG", "SMPLOG_CONFIG"}

var candidates = []string{
	"./data/smplog.config.toml",
	"./smplog.config.toml",
}

// Load returns file-backed logging configuration when available, otherwise defaults.
func Load() logs.Config {
	for _, env := range envConfigPaths {
		if path := os.Getenv(env); path != "" {
			if cfg, err := logs.ConfigFromFile(path); err == nil {
				return cfg
			}
		}
	}

	for _, path := range candidates {
		if cfg, err := logs.ConfigFromFile(path); err == nil {
			return cfg
		}
	}

	return logs.DefaultConfig()
}
