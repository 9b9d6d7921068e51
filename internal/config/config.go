package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	UI   UIConfig
	Data DataConfig
	Log  LogConfig
}

// UIConfig holds layout and interaction timing settings.
type UIConfig struct {
	ExpandedPanelWidth float64  `mapstructure:"expanded_panel_width"`
	CompactBreakpoint  float64  `mapstructure:"compact_breakpoint"`
	ExpandedBreakpoint float64  `mapstructure:"expanded_breakpoint"`
	AnimationMs        int      `mapstructure:"animation_ms"`
	AnimationSteps     int      `mapstructure:"animation_steps"`
	SearchDebounceMs   int      `mapstructure:"search_debounce_ms"`
	TabLabels          []string `mapstructure:"tab_labels"`
}

// DataConfig holds mock data settings.
type DataConfig struct {
	SeedSize int `mapstructure:"seed_size"`
}

// LogConfig holds log output settings. The TUI owns the terminal, so logs
// go to a file.
type LogConfig struct {
	Path  string
	Level string
}

// AnimationDuration returns the configured panel animation duration.
func (u UIConfig) AnimationDuration() time.Duration {
	return time.Duration(u.AnimationMs) * time.Millisecond
}

// SearchDebounce returns the configured search debounce window.
func (u UIConfig) SearchDebounce() time.Duration {
	return time.Duration(u.SearchDebounceMs) * time.Millisecond
}

// Load reads configuration from file and env. Env var overrides use prefix
// GUESTBOOK_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("ui.expanded_panel_width", 320.0)
	v.SetDefault("ui.compact_breakpoint", 600.0)
	v.SetDefault("ui.expanded_breakpoint", 840.0)
	v.SetDefault("ui.animation_ms", 300)
	v.SetDefault("ui.animation_steps", 20)
	v.SetDefault("ui.search_debounce_ms", 300)
	v.SetDefault("ui.tab_labels", []string{"Profile", "Visits", "Preferences", "Notes"})
	v.SetDefault("data.seed_size", 16)
	v.SetDefault("log.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "guestbook", "guestbook.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GUESTBOOK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "guestbook"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GUESTBOOK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
