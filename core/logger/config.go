package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format is the encoding, either "json" or "console".
	Format string `mapstructure:"format" default:"console"`
	// Dir is the directory where job and worker log files are written.
	// Empty disables file logging.
	Dir string `mapstructure:"dir" default:"logs"`
}
