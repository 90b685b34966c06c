package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"none", LevelNone},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestLoggerWritesLeveledLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	l, err := New(LevelInfo, path, "transport")
	require.NoError(t, err)
	defer l.Close()

	l.Debug("should be filtered")
	l.Info("connected to %s", "ws://example")
	l.Error("boom")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "[INFO] [transport] connected to ws://example")
	assert.Contains(t, out, "[ERROR] [transport] boom")
}

func TestWithPrefixChains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	l, err := New(LevelDebug, path, "session")
	require.NoError(t, err)
	defer l.Close()

	l.WithPrefix("store").Debug("resync")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[session:store] resync")
}

func TestSetLevelReachesPrefixedChildren(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	root, err := New(LevelInfo, path, "")
	require.NoError(t, err)
	defer root.Close()

	child := root.WithPrefix("transport")
	child.Debug("filtered before the change")

	// Raising verbosity on the root must apply to loggers handed out
	// earlier, or the live log-level reload does nothing for components
	// created at startup.
	root.SetLevel(LevelDebug)
	child.Debug("visible after the change")
	root.WithPrefix("store").Debug("new children too")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.NotContains(t, out, "filtered before the change")
	assert.Contains(t, out, "[DEBUG] [transport] visible after the change")
	assert.Contains(t, out, "[DEBUG] [store] new children too")

	// And back down again.
	root.SetLevel(LevelError)
	child.Info("filtered after lowering")
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "filtered after lowering")
}

func TestDiscardingLogger(t *testing.T) {
	l, err := New(LevelNone, "", "")
	require.NoError(t, err)
	// Must not panic or create files.
	l.Info("nothing")
	require.NoError(t, l.Close())
}
