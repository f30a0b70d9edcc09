package logger

import (
	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Encoding is the log encoding.
	// Possible values: json, console.
	Encoding string `yaml:"encoding"`
	// Level is the log level.
	Level zapcore.Level `yaml:"level"`
	// Output is the list of paths the logs are written to. The terminal
	// prompt owns stdout, so logs go to stderr by default.
	Output []string `yaml:"output"`
	// OTEL is the OTEL exporter configuration.
	OTEL *OTELConfig `yaml:"otel_exporter"`
}

// Default sets the default values for the configuration.
func (m *Config) Default() {
	if m.Encoding == "" {
		m.Encoding = "console"
	}
	if len(m.Output) == 0 {
		m.Output = []string{"stderr"}
	}
	if m.OTEL != nil && m.OTEL.ServiceName == "" {
		m.OTEL.ServiceName = "lifeexit"
	}
}
