// Package logging constructs the structured logger used across the daemon:
// one logrus.Entry per cell, tagged with that cell's name so log lines from
// concurrently loaded cells never need to be disambiguated by the reader.
package logging

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a logger for one cell. debug selects human-readable
// text output at debug level; otherwise the logger emits structured JSON at
// the level named by BCACHE_LOG_LEVEL (info when unset or unparseable),
// matching what a daemon running under a process supervisor expects on its
// stdout/stderr.
func NewLogger(cellName string, debug bool) *logrus.Entry {
	log := logrus.New()
	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	} else {
		log.SetLevel(getLogLevel())
		log.Formatter = &logrus.JSONFormatter{}
	}
	return log.WithFields(logrus.Fields{
		"cell": cellName,
	})
}

// NewDiscardLogger returns a logger that drops everything, for tests and
// one-shot CLI invocations that don't want log noise on stderr.
func NewDiscardLogger() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return log.WithField("cell", "discard")
}

// WithInvalidation decorates a logger with a correlation id for one
// invalidate_path call, so every log line emitted during one cascade can be
// grepped out of a busy daemon log by that id alone.
func WithInvalidation(entry *logrus.Entry, path string) *logrus.Entry {
	return entry.WithFields(logrus.Fields{
		"invalidation_id": uuid.NewString(),
		"path":            path,
	})
}

func getLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(os.Getenv("BCACHE_LOG_LEVEL"))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
