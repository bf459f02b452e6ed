package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/kittclouds/studiocore/internal/config"
)

func TestDebugOnlyWithFlag(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(config.Flags{}, &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log = NewWithOutput(config.Flags{EnableDebugLogging: true}, &buf)
	log.WithField("factory", "p1").Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "factory=p1")
}
