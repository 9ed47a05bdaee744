package config

import (
	"fmt"
	"reflect"
	"strings"

	"eps-prepro/core/database"
	"eps-prepro/core/logger"
	"eps-prepro/core/notify"
	"eps-prepro/core/server"
	"eps-prepro/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
// Job semantics (directories, variables) live in the parameter file, see Parameters.
type Config struct {
	// Job holds runtime settings of the preprocessing job.
	Job JobConfig `mapstructure:"job"`
	// Tools holds the executables used for format conversion and merging.
	Tools ToolsConfig `mapstructure:"tools"`
	// Server holds configuration for the optional status server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for publishing outputs to object storage.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the processed-output catalog.
	Database database.Config `mapstructure:"database"`
	// Kafka holds configuration for downstream ingestion notifications.
	Kafka notify.Config `mapstructure:"kafka"`
}

// JobConfig holds runtime settings that are not part of the parameter file.
type JobConfig struct {
	// Workers is the number of workers besides the coordinator.
	Workers int `mapstructure:"workers" default:"4"`
	// Members is the number of ensemble members per model run.
	Members int `mapstructure:"members" default:"20"`
	// RemapMethod is the regridding method used for remapped outputs.
	RemapMethod string `mapstructure:"remap_method" default:"conservative"`
}

// ToolsConfig names the external executables.
type ToolsConfig struct {
	CDO        string `mapstructure:"cdo" default:"cdo"`
	NCAP2      string `mapstructure:"ncap2" default:"ncap2"`
	NCPDQ      string `mapstructure:"ncpdq" default:"ncpdq"`
	GribFilter string `mapstructure:"grib_filter" default:"grib_filter"`
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Job.Workers < 1 {
		return fmt.Errorf("job.workers must be at least 1, got %d", c.Job.Workers)
	}
	if c.Job.Members < 1 {
		return fmt.Errorf("job.members must be at least 1, got %d", c.Job.Members)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	return nil
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. on the batch nodes)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. JOB_WORKERS -> job.workers)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// An empty variable blanks the key instead of falling back to the default.
	v.AllowEmptyEnv(true)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
