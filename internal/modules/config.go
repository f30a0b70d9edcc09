package modules

import (
	"time"
)

const (
	defaultVetoTimeout  = 10 * time.Second
	defaultCloseTimeout = 30 * time.Second
)

// Config represents the module runtime configuration.
type Config struct {
	// Time given to every module to decide whether it can be closed. A module
	// that does not answer in time vetoes the shutdown.
	VetoTimeout time.Duration `yaml:"veto_timeout"`
	// Time given to every module to release its resources.
	CloseTimeout time.Duration `yaml:"close_timeout"`
}

// Default sets the default values for the configuration.
func (m *Config) Default() {
	if m.VetoTimeout <= 0 {
		m.VetoTimeout = defaultVetoTimeout
	}
	if m.CloseTimeout <= 0 {
		m.CloseTimeout = defaultCloseTimeout
	}
}
