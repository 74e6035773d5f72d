// Package runlog keeps the append-only run log: one timestamped line per
// event, persisted next to the outputs and mirrored to the structured
// logger. The file is the user-facing record; zerolog is the operator one.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Log appends timestamped lines to a single file. A nil *Log is valid and
// drops everything, which keeps callers free of nil checks in tests.
type Log struct {
	f    *os.File
	path string
}

// Open opens (or creates) the run log at path in append mode.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log %s: %w", path, err)
	}
	return &Log{f: f, path: path}, nil
}

// Path returns the log file location.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Printf appends one informational line.
func (l *Log) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Info().Msg(msg)
	l.append(msg)
}

// Warnf appends one [WARN] line.
func (l *Log) Warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Warn().Msg(msg)
	l.append("[WARN] " + msg)
}

// Errorf appends one [ERROR] line.
func (l *Log) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Error().Msg(msg)
	l.append("[ERROR] " + msg)
}

func (l *Log) append(line string) {
	if l == nil || l.f == nil {
		return
	}
	stamped := time.Now().Format("2006-01-02 15:04:05") + " " + line + "\n"
	if _, err := l.f.WriteString(stamped); err != nil {
		log.Error().Str("path", l.path).Err(err).Msg("failed to append to run log")
	}
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
