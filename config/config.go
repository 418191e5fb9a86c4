// Package config loads cmd/usbtmcctl's default session settings from
// a TOML file, creating it from an embedded default on first run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

//go:embed usbtmcctl.toml
var defaultConfigData []byte

// Config mirrors the writable subset of the attribute store (spec.md
// §4.7) that a freshly opened session should start with; the CLI
// applies each of them with SET_ATTRIBUTE on every invocation, so no
// per-setting command-line flags are needed.
type Config struct {
	TimeoutMS     int    `toml:"timeout_ms"`
	TermChar      int    `toml:"term_char"`
	TermCharOn    bool   `toml:"term_char_enabled"`
	AutoAbort     bool   `toml:"auto_abort_on_error"`
	AddNLOnRead   bool   `toml:"add_nl_on_read"`
	RemNLOnWrite  bool   `toml:"rem_nl_on_write"`
	ReadMode      string `toml:"read_mode"`
}

func path() (string, error) {
	var dir string
	var err error
	switch runtime.GOOS {
	case "windows":
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: cannot determine user config directory: %w", err)
		}
		dir = filepath.Join(dir, "usbtmcctl")
	default:
		dir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: cannot determine user home directory: %w", err)
		}
	}
	return filepath.Join(dir, ".usbtmcctl.toml"), nil
}

// Load reads the user's config, creating it from the embedded default
// if it does not yet exist.
func Load() (*Config, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(p); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("config: create config directory: %w", err)
		}
		if err := os.WriteFile(p, defaultConfigData, 0644); err != nil {
			return nil, fmt.Errorf("config: write default config to %s: %w", p, err)
		}
	}

	var c Config
	if _, err := toml.DecodeFile(p, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", p, err)
	}
	return &c, nil
}
