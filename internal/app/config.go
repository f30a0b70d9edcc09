package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/yanet-platform/lifeexit/internal/lifecycle"
	"github.com/yanet-platform/lifeexit/internal/modules"
	"github.com/yanet-platform/lifeexit/internal/monitoring/logger"
	"github.com/yanet-platform/lifeexit/internal/prompt"
	"github.com/yanet-platform/lifeexit/internal/server"
	"github.com/yanet-platform/lifeexit/internal/session"
)

type Config struct {
	Logger logger.Config `yaml:"logging"`

	Lifecycle lifecycle.Config `yaml:"lifecycle"`
	Modules   modules.Config   `yaml:"modules"`
	Session   session.Config   `yaml:"session"`
	Prompt    prompt.Config    `yaml:"prompt"`
	Server    server.Config    `yaml:"server"`
}

// pollInterval is the bounded wait of the dispatch goroutine owning an
// attempt. The prompt and the window save are queued on that goroutine and
// only run once the wait expires, so it must stay short.
const pollInterval = 100 * time.Millisecond

// Default sets the default values for the configuration.
func (m *Config) Default() {
	m.Logger.Default()
	if m.Lifecycle.PollInterval <= 0 {
		m.Lifecycle.PollInterval = pollInterval
	}
	m.Lifecycle.Default()
	m.Modules.Default()
	m.Session.Default()
	m.Prompt.Default()
	m.Server.Default()
}

// LoadConfig reads the configuration from the file at path, applies the
// defaults and the environment overrides. An empty path yields the default
// configuration.
func LoadConfig(path string) (Config, error) {
	var config Config
	config.Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}

		if err = yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		config.Default()
	}

	if err := config.Lifecycle.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return config, nil
}
