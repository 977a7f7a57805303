package kittyimg

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, env := range []string{"PROBE_TIMEOUT", "SETTLE_DELAY", "LEVEL", "TMUX_PASSTHROUGH", "TEMP_DIR"} {
		// Setenv restores the original value once the test is done
		t.Setenv("KITTYIMG_"+env, "")
		os.Unsetenv("KITTYIMG_" + env)
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("KITTYIMG_PROBE_TIMEOUT", "150ms")
	t.Setenv("KITTYIMG_SETTLE_DELAY", "0s")
	t.Setenv("KITTYIMG_LEVEL", "local")
	t.Setenv("KITTYIMG_TMUX_PASSTHROUGH", "false")
	t.Setenv("KITTYIMG_TEMP_DIR", "/var/tmp")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, cfg.ProbeTimeout)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay)
	assert.False(t, cfg.TmuxPassthrough)
	assert.Equal(t, "/var/tmp", cfg.TempDir)

	level, forced := cfg.forcedLevel()
	assert.True(t, forced)
	assert.Equal(t, LevelLocal, level)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad duration", key: "KITTYIMG_PROBE_TIMEOUT", value: "soon"},
		{name: "zero timeout", key: "KITTYIMG_PROBE_TIMEOUT", value: "0s"},
		{name: "negative settle", key: "KITTYIMG_SETTLE_DELAY", value: "-1ms"},
		{name: "unknown level", key: "KITTYIMG_LEVEL", value: "sixel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadConfig()
			assert.Error(t, err)
			assert.Equal(t, DefaultConfig(), cfg, "defaults are returned with the error")
		})
	}
}

func TestForcedLevelUnset(t *testing.T) {
	_, forced := DefaultConfig().forcedLevel()
	assert.False(t, forced)
}
