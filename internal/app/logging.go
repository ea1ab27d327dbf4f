package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"storyweaver/pkg/types"
)

// NewLogger builds a structured logger writing to the configured log file,
// or to a file under the XDG state directory by default. Logging to a file
// keeps records off the terminal the TUI owns.
func NewLogger(cfg types.LoggingConfig) (*log.Logger, io.Closer, error) {
	path := cfg.File
	if path == "" {
		stateDir, err := getStateDir()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get state directory: %w", err)
		}
		path = filepath.Join(stateDir, "storyweaver.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           parseLevel(cfg.Level),
	})
	return logger, f, nil
}

// getStateDir returns the state directory path.
func getStateDir() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "storyweaver"), nil
}

func parseLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
