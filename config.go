package kittyimg

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "KITTYIMG"

// Config holds the tunables of the probe and the renderer.
// Every field can be set from the environment with the KITTYIMG_ prefix.
type Config struct {
	// ProbeTimeout is how long the terminal gets to answer a probe
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"20ms"`
	// SettleDelay is how long to wait after a by-reference transmission
	SettleDelay time.Duration `envconfig:"SETTLE_DELAY" default:"20ms"`
	// Level forces the capability level and disables probing ("none", "remote", "local")
	Level string `envconfig:"LEVEL"`
	// TmuxPassthrough wraps escape sequences for tmux when running inside it
	TmuxPassthrough bool `envconfig:"TMUX_PASSTHROUGH" default:"true"`
	// TempDir is where by-reference images and probe files are written (OS default if empty)
	TempDir string `envconfig:"TEMP_DIR"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() Config {
	return Config{
		ProbeTimeout:    20 * time.Millisecond,
		SettleDelay:     20 * time.Millisecond,
		TmuxPassthrough: true,
	}
}

// LoadConfig reads the configuration from KITTYIMG_* environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return DefaultConfig(), err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative, got %s", c.SettleDelay)
	}
	if c.Level != "" {
		if _, err := ParseLevel(c.Level); err != nil {
			return err
		}
	}
	return nil
}

// forcedLevel returns the level set through configuration, if any
func (c Config) forcedLevel() (Level, bool) {
	if c.Level == "" {
		return LevelNone, false
	}
	l, err := ParseLevel(c.Level)
	if err != nil {
		return LevelNone, false
	}
	return l, true
}
