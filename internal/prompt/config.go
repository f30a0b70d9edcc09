package prompt

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// Mode selects how the user interface is detected.
type Mode string

const (
	// ModeAuto treats the application as headless when the standard input
	// is not a terminal.
	ModeAuto Mode = "auto"
	// ModeTerminal always shows the prompt.
	ModeTerminal Mode = "terminal"
	// ModeHeadless never shows the prompt.
	ModeHeadless Mode = "headless"
)

// Config represents the prompt configuration.
type Config struct {
	Mode Mode `yaml:"mode"`
}

// Default sets the default values for the configuration.
func (m *Config) Default() {
	if m.Mode == "" {
		m.Mode = ModeAuto
	}
}

// Headless reports whether the application runs without a user interface.
func (m Config) Headless() (bool, error) {
	switch m.Mode {
	case ModeAuto, "":
		return !IsTerminal(os.Stdin.Fd()), nil
	case ModeTerminal:
		return false, nil
	case ModeHeadless:
		return true, nil
	default:
		return false, fmt.Errorf("unknown prompt mode %q", m.Mode)
	}
}

// IsTerminal reports whether the file descriptor is a terminal.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
