package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("MCP_BROWSER_MODE", "")
	t.Setenv("MCP_WINDOW_SIZE", "")
	t.Setenv("MCP_HTTP_TIMEOUT", "")

	c := FromEnv()
	assert.Equal(t, ModeLaunch, c.Mode)
	assert.Equal(t, 1280, c.WindowW)
	assert.Equal(t, 800, c.WindowH)
	assert.Equal(t, ToolsetV2, c.Toolset)
	assert.True(t, c.Headless)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MCP_BROWSER_MODE", "attach")
	t.Setenv("MCP_WINDOW_SIZE", "1920x1080")
	t.Setenv("MCP_ALLOW_HOSTS", "example.com, api.example.com ,")
	t.Setenv("MCP_HEADLESS", "false")

	c := FromEnv()
	require.Equal(t, ModeAttach, c.Mode)
	assert.Equal(t, 1920, c.WindowW)
	assert.Equal(t, 1080, c.WindowH)
	assert.Equal(t, []string{"example.com", "api.example.com"}, c.AllowHosts)
	assert.False(t, c.Headless)
}

func TestEnvWindowSizeMalformedFallsBackToDefault(t *testing.T) {
	w, h := envWindowSize("not-a-size")
	assert.Equal(t, 1280, w)
	assert.Equal(t, 800, h)
}
