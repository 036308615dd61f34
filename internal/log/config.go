package log

import "time"

// Config configures the global logger.
type Config struct {
	// Level is the minimum enabled level: debug, info, warn or error.
	Level string `conf:"level" yaml:"level" json:"level"`

	// Format selects the encoder: json or console.
	Format string `conf:"format" yaml:"format" json:"format"`

	// Output selects where logs go: stdout, stderr or file.
	Output string `conf:"output" yaml:"output" json:"output"`

	File FileConfig `conf:"file" yaml:"file" json:"file"`
}

// FileConfig configures file output rotation (lumberjack).
type FileConfig struct {
	Path       string        `conf:"path" yaml:"path" json:"path"`
	MaxSizeMB  int           `conf:"max_size_mb" yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int           `conf:"max_backups" yaml:"max_backups" json:"max_backups"`
	MaxAge     time.Duration `conf:"max_age" yaml:"max_age" json:"max_age"`
	Compress   bool          `conf:"compress" yaml:"compress" json:"compress"`
}

func (c Config) withDefaults() Config {
	if c.Level == "" {
		c.Level = "info"
	}

	if c.Format == "" {
		c.Format = "json"
	}

	if c.Output == "" {
		c.Output = "stdout"
	}

	return c
}
