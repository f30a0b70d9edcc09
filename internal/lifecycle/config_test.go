package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_ApplyEnv verifies that the environment overrides the flags and
// that malformed values are rejected.
func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv(EnvSkipPrompt, "true")
	t.Setenv(EnvNoExit, "1")
	t.Setenv(EnvWarmClose, "false")

	config := Config{WarmClose: true, ExitWhenInvisible: true}
	config.Default()
	require.NoError(t, config.ApplyEnv())

	assert.True(t, config.SkipPrompt)
	assert.True(t, config.NoExit)
	assert.True(t, config.ExitWhenInvisible)
	assert.False(t, config.WarmClose)
	assert.Equal(t, 5*time.Second, config.GetPollInterval())

	t.Setenv(EnvNoExit, "maybe")
	assert.ErrorContains(t, config.ApplyEnv(), EnvNoExit)
}

// TestConfig_GetPollInterval verifies the fallback to the default interval.
func TestConfig_GetPollInterval(t *testing.T) {
	assert.Equal(t, defaultPollInterval, Config{}.GetPollInterval())
	assert.Equal(t, time.Second, Config{PollInterval: time.Second}.GetPollInterval())
}
