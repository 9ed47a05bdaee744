package server

// Config holds configuration for the optional status server.
type Config struct {
	// Addr is the listen address (e.g. ":9090"). Empty disables the server.
	Addr string `mapstructure:"addr" default:""`
	// ApiKey, when set, is required in the X-API-Key header for /status.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Enabled reports whether the status server should be started.
func (c Config) Enabled() bool {
	return c.Addr != ""
}
