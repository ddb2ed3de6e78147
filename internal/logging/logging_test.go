package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextHandlerWritesHumanReadableLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})
	log.Info("build starting", "nodes", 3)

	out := buf.String()
	assert.Contains(t, out, "build starting")
	assert.Contains(t, out, "nodes=3")
}

func TestNew_JSONHandlerWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{JSON: true, Level: LevelInfo, Output: &buf})
	log.Info("build starting", "nodes", 3)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "build starting", decoded["msg"])
	assert.Equal(t, float64(3), decoded["nodes"])
}

func TestNew_QuietDiscardsBelowError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Quiet: true, Output: &buf})
	log.Info("should not appear")
	log.Warn("should not appear either")
	log.Error("this one shows")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "this one shows")
}

func TestWith_ChildLoggerIncludesBoundFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})
	child := log.With("component", "scheduler")
	child.Info("node executed")

	assert.Contains(t, buf.String(), "component=scheduler")
}

func TestNew_InfoLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Output: &buf})
	log.Debug("hidden")
	assert.Empty(t, strings.TrimSpace(buf.String()))
}
