package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL string        `mapstructure:"api_base_url"`
	APITimeout time.Duration `mapstructure:"api_timeout"`
	SocketURL  string        `mapstructure:"socket_url"`

	DataDir string `mapstructure:"data_dir"`

	LocationInterval time.Duration `mapstructure:"location_interval"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`

	LocationSource string  `mapstructure:"location_source"` // "walk" or "fixed"
	StartLat       float64 `mapstructure:"start_latitude"`
	StartLng       float64 `mapstructure:"start_longitude"`
	WalkStepKm     float64 `mapstructure:"walk_step_km"`

	QueueBackend string `mapstructure:"queue_backend"` // "file" or "redis"
	QueuePath    string `mapstructure:"queue_path"`
	RedisAddr    string `mapstructure:"redis_addr"`
	RedisKey     string `mapstructure:"redis_key"`

	TelemetryOutput string `mapstructure:"telemetry_output"` // "console", "file", "kafka" or "postgres"
	TelemetryFile   string `mapstructure:"telemetry_file"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list"`
	KafkaTopic      string `mapstructure:"kafka_topic"`
	PostgresDSN     string `mapstructure:"postgres_dsn"`

	ArchiveEnabled bool   `mapstructure:"archive_enabled"`
	ArchiveBucket  string `mapstructure:"archive_bucket"`
	ArchiveRegion  string `mapstructure:"archive_region"`
	ArchivePrefix  string `mapstructure:"archive_prefix"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Default config location
		viper.AddConfigPath("examples")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("api_timeout", "15s")
	viper.SetDefault("location_interval", "3s")
	viper.SetDefault("poll_interval", "10s")
	viper.SetDefault("location_source", "walk")
	viper.SetDefault("walk_step_km", 0.05)
	viper.SetDefault("queue_backend", "file")
	viper.SetDefault("redis_key", "driver_location_queue_v1")
	viper.SetDefault("telemetry_output", "console")
	viper.SetDefault("kafka_topic", "driver_events")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
