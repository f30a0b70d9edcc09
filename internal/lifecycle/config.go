package lifecycle

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const defaultPollInterval = 5 * time.Second // bounded wait between secondary loops

// Environment variables overriding the configuration.
const (
	EnvSkipPrompt        = "LIFEEXIT_CLOSE"
	EnvNoExit            = "LIFEEXIT_CLOSE_NO_EXIT"
	EnvExitWhenInvisible = "LIFEEXIT_CLOSE_WHEN_INVISIBLE"
	EnvWarmClose         = "LIFEEXIT_WARM_CLOSE"
)

// Config holds the exit coordinator configuration.
type Config struct {
	// Interval of the bounded wait performed by the dispatch goroutine
	// between secondary loops.
	PollInterval time.Duration `yaml:"poll_interval"`
	// Do not show the unsaved changes prompt.
	SkipPrompt bool `yaml:"skip_prompt"`
	// Run every phase but do not terminate the process. Used by tests.
	NoExit bool `yaml:"no_exit"`
	// Terminate as soon as the windows are hidden, without waiting for the
	// module runtime. Used to measure apparent shutdown time.
	ExitWhenInvisible bool `yaml:"exit_when_invisible"`
	// Run the warm-up work before the shutdown starts.
	WarmClose bool `yaml:"warm_close"`
}

// Default sets the default values for the configuration.
func (m *Config) Default() {
	if m.PollInterval <= 0 {
		m.PollInterval = defaultPollInterval
	}
}

// GetPollInterval returns the poll interval, or the default one when it is
// not set.
func (m Config) GetPollInterval() time.Duration {
	if m.PollInterval <= 0 {
		return defaultPollInterval
	}
	return m.PollInterval
}

// ApplyEnv overrides the flags with the environment variables that are set.
func (m *Config) ApplyEnv() error {
	env := viper.New()

	flags := []struct {
		key   string
		env   string
		value *bool
	}{
		{"skip_prompt", EnvSkipPrompt, &m.SkipPrompt},
		{"no_exit", EnvNoExit, &m.NoExit},
		{"exit_when_invisible", EnvExitWhenInvisible, &m.ExitWhenInvisible},
		{"warm_close", EnvWarmClose, &m.WarmClose},
	}

	for _, flag := range flags {
		if err := env.BindEnv(flag.key, flag.env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", flag.env, err)
		}
		if !env.IsSet(flag.key) {
			continue
		}

		value, err := cast.ToBoolE(env.Get(flag.key))
		if err != nil {
			return fmt.Errorf("invalid value of %s: %w", flag.env, err)
		}
		*flag.value = value
	}
	return nil
}
