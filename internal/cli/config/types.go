// Package config provides configuration management for the Artifice CLI.
//
// Values are layered: defaults, then artifice.yaml, then ARTIFICE_*
// environment variables, then explicitly set command line flags.
package config

import (
	"time"

	"github.com/veetance/artifice/pkg/core"
)

// Default values for configuration.
const (
	DefaultBankDir    = "ARTIFICE-BANK"
	DefaultStateFile  = ".artifice/state.db"
	DefaultOutput     = "auto"
	DefaultPort       = 8765
	DefaultTimeout    = 10 * time.Second
	DefaultMaxBytes   = 2 << 20
	DefaultConfigName = "artifice.yaml"
)

// FetchConfig bounds how sketch references are read.
type FetchConfig struct {
	Timeout  time.Duration `koanf:"timeout"`
	MaxBytes int64         `koanf:"max_bytes"`
}

// UIConfig holds configuration for the web server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	Watch         bool   `koanf:"watch"`
	SessionSecret string `koanf:"session_secret"`
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     DefaultPort,
		AutoOpen: true,
		Watch:    true,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	return ui
}

// GetFetchConfig returns the fetch limits with defaults applied.
func (c *Config) GetFetchConfig() FetchConfig {
	f := FetchConfig{Timeout: DefaultTimeout, MaxBytes: DefaultMaxBytes}
	if c.Fetch != nil {
		if c.Fetch.Timeout > 0 {
			f.Timeout = c.Fetch.Timeout
		}
		if c.Fetch.MaxBytes > 0 {
			f.MaxBytes = c.Fetch.MaxBytes
		}
	}
	return f
}

// GetBaseline returns the session baseline, falling back to the built-in one.
func (c *Config) GetBaseline() core.ParameterMap {
	if len(c.Baseline) == 0 {
		return core.DefaultBaseline()
	}
	return core.ParameterMap(c.Baseline).Clone()
}

// Config holds all CLI configuration options.
type Config struct {
	BankDir      string             `koanf:"bank_dir"`
	IndexFile    string             `koanf:"index_file"`
	Hero         string             `koanf:"hero"`
	StatePath    string             `koanf:"state_path"`
	RuntimeURL   string             `koanf:"runtime_url"`
	Verbose      bool               `koanf:"verbose"`
	OutputFormat string             `koanf:"output"`
	Brand        core.Palette       `koanf:"brand"`
	Baseline     map[string]float64 `koanf:"baseline"`
	Fetch        *FetchConfig       `koanf:"fetch"`
	UI           *UIConfig          `koanf:"ui"`

	// ProjectRoot anchors relative paths; not read from config.
	ProjectRoot string `koanf:"-"`
}
