package docpipe

import "log/slog"

// DefaultMaxFileSize is the size cap applied when a Config leaves
// MaxFileSize unset. Broker statements run a few hundred kilobytes;
// anything bigger is not a statement.
const DefaultMaxFileSize = 100 * 1024 * 1024

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the largest PDF the pipeline will read
	// (default: DefaultMaxFileSize).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
