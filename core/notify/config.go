package notify

// Config holds configuration for downstream ingestion notifications.
type Config struct {
	// Enabled turns publishing of "merged file ready" events on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Brokers is the comma separated list of Kafka bootstrap brokers.
	Brokers []string `mapstructure:"brokers" default:""`
	// Topic receives one message per merged output.
	Topic string `mapstructure:"topic" default:"eps-processed"`
	// TimeoutSeconds bounds a single write.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
