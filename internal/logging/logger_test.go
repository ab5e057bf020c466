package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPlainLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false, false)
	logger.Debug("hidden")
	logger.Info("comments added", "count", 2)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "level=INFO")
	require.Contains(t, out, "count=2")
}

func TestNewVerboseColoredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, true)
	logger.Debug("shown")

	out := buf.String()
	require.Contains(t, out, "shown")
	require.Contains(t, out, "\x1b[")
	require.NotContains(t, out, "level=DEBUG ")
}

func TestColorEnabledHonoursEnv(t *testing.T) {
	t.Setenv("CLICOLOR_FORCE", "")
	t.Setenv("NO_COLOR", "1")
	require.False(t, ColorEnabled(nil))

	t.Setenv("CLICOLOR_FORCE", "1")
	require.True(t, ColorEnabled(nil))
}
