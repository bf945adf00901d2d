// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFileRel is the log file location relative to the XDG state home.
const LogFileRel = "appkit/appkit.log"

// Setup configures the global logger for the given verbosity
// (0 warn, 1 info, 2 debug, 3+ trace). Human-readable output goes to
// console; entries are also appended to the state log file when it can be
// opened. The returned closer releases the log file.
func Setup(verbosity int, console io.Writer, noColor bool) func() error {
	zerolog.SetGlobalLevel(levelFor(verbosity))

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}}

	closer := func() error { return nil }
	logPath, fileErr := LogFilePath()
	var file *os.File
	if fileErr == nil {
		file, fileErr = openLogFile(logPath)
	}
	if fileErr == nil {
		writers = append(writers, file)
		closer = file.Close
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if verbosity >= 2 {
		log.Logger = log.Logger.With().Caller().Logger()
	}

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logPath).Msg("failed to open log file, logging to console only")
	}
	log.Debug().Int("verbosity", verbosity).Str("log_file", logPath).Msg("logger initialized")

	return closer
}

// Get returns a logger tagged with component.
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogFilePath returns the state log file path, creating its directory.
func LogFilePath() (string, error) {
	return xdg.StateFile(LogFileRel)
}

func levelFor(verbosity int) zerolog.Level {
	switch verbosity {
	case 0:
		return zerolog.WarnLevel
	case 1:
		return zerolog.InfoLevel
	case 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return file, nil
}
