package session

import (
	"os"
	"path/filepath"
)

// Config represents the session persistence configuration.
type Config struct {
	// Directory the session state is stored in.
	Dir string `yaml:"dir"`
}

// Default sets the default values for the configuration.
func (m *Config) Default() {
	if m.Dir != "" {
		return
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	m.Dir = filepath.Join(base, "lifeexit")
}
