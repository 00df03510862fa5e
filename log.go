package main

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/deepxi/sebatch/internal/config"
	"github.com/deepxi/sebatch/utils"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "sebatch").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sebatch.log"), nil
}

// setupLog sends log output to stderr, or to a file when SEBATCH_LOG_FILE is
// set. With SEBATCH_DEBUG and no explicit file, debug output goes to the
// user cache dir so that it does not mix with command output.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)

	e, err := config.ParseEnv()
	if err != nil {
		return nil, err
	}

	logFile := utils.ExpandPath(e.LogFile)
	if logFile == "" && e.Debug {
		logFile, err = getLogFilePath()
		if err != nil {
			return nil, err
		}
	}
	if e.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if logFile == "" {
		return func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
