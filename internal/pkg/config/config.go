package config

import (
    "fmt"
    "github.com/spf13/viper"
)

// Holds all the configuration fields for the sitewatch service.
type Config struct {
    // Webhook destination for reports. Required.
    WebhookURL string `mapstructure:"WEBHOOK_URL"`

    // Fetcher settings
    RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
    MaxAttempts           int    `mapstructure:"MAX_ATTEMPTS"`
    RetryBaseDelaySeconds int    `mapstructure:"RETRY_BASE_DELAY_SECONDS"`
    UserAgent             string `mapstructure:"USER_AGENT"`

    // Batch processing
    NumWorkers    int `mapstructure:"NUM_WORKERS"`
    QueueCapacity int `mapstructure:"QUEUE_CAPACITY"`

    // Optional enrichment
    DetectLanguage bool   `mapstructure:"DETECT_LANGUAGE"`
    WatchPhrases   string `mapstructure:"WATCH_PHRASES"`
    TrackChanges   bool   `mapstructure:"TRACK_CHANGES"`

    // Redis config (change tracking)
    RedisHost     string `mapstructure:"REDIS_HOST"`
    RedisPort     string `mapstructure:"REDIS_PORT"`
    RedisPassword string `mapstructure:"REDIS_PASSWORD"`
    RedisDB       int    `mapstructure:"REDIS_DB"`

    // Metrics endpoint, disabled when empty
    MetricsPort string `mapstructure:"METRICS_PORT"`

    // Logging
    LogLevel string `mapstructure:"LOG_LEVEL"`
    LogFile  string `mapstructure:"LOG_FILE"`
}

// Initializes Viper and unmarshals config into our Config struct.
// It reads from environment variables with sensible defaults.
func LoadConfig() (*Config, error) {
    // An explicit default so AutomaticEnv picks the key up during Unmarshal.
    viper.SetDefault("WEBHOOK_URL", "")

    viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 10)
    viper.SetDefault("MAX_ATTEMPTS", 5)
    viper.SetDefault("RETRY_BASE_DELAY_SECONDS", 1)
    viper.SetDefault("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
    viper.SetDefault("NUM_WORKERS", 1)
    viper.SetDefault("QUEUE_CAPACITY", 100)
    viper.SetDefault("DETECT_LANGUAGE", false)
    viper.SetDefault("WATCH_PHRASES", "")
    viper.SetDefault("TRACK_CHANGES", false)

    // Redis defaults
    viper.SetDefault("REDIS_HOST", "localhost")
    viper.SetDefault("REDIS_PORT", "6379")
    viper.SetDefault("REDIS_PASSWORD", "")
    viper.SetDefault("REDIS_DB", 0)

    viper.SetDefault("METRICS_PORT", "")
    viper.SetDefault("LOG_LEVEL", "info")
    viper.SetDefault("LOG_FILE", "sitewatch.log")

    viper.AutomaticEnv()

    var config Config
    if err := viper.Unmarshal(&config); err != nil {
        return nil, fmt.Errorf("failed to unmarshal config: %w", err)
    }
    return &config, nil
}
