// Package logging builds the process logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kittclouds/studiocore/internal/config"
)

// New returns a text logger on stderr. Debug output is only enabled by
// the enable_debug_logging flag.
func New(flags config.Flags) *logrus.Logger {
	return NewWithOutput(flags, os.Stderr)
}

// NewWithOutput is New with a custom writer.
func NewWithOutput(flags config.Flags, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	if flags.EnableDebugLogging {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// Discard returns a logger that drops everything, for tests and library
// callers that pass no logger.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
