// Package config provides functionality for loading and accessing application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"norelock.dev/mediagate/backend/internal/services/catalog"
)

// Config represents the application configuration
type Config struct {
	// Environment is the current running environment (development, staging, production)
	Environment string `mapstructure:"environment"`

	// Version is reported by the health endpoint
	Version string `mapstructure:"version"`

	// Server configuration
	Server struct {
		// Port is the HTTP server port
		Port int `mapstructure:"port"`
		// Host is the HTTP server host
		Host string `mapstructure:"host"`
		// ReadTimeout is the maximum duration for reading the entire request
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout bounds JSON responses. Audio streams extend their own write deadline per chunk.
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
		// ShutdownTimeout bounds graceful shutdown
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// AllowedOrigins is the CORS allow list
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`

	// Catalog (manga) upstream configuration
	Catalog struct {
		// BaseURLs are tried in order for every catalog call
		BaseURLs []string `mapstructure:"base_urls"`
		// AttemptTimeout bounds a single upstream attempt
		AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
		// RequestsPerSecond paces outbound calls per base URL, 0 disables pacing. The limiter is
		// shared by all requests, so a wait longer than AttemptTimeout fails that attempt.
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
		// UserAgent is sent with every upstream request
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"catalog"`

	// Music metadata configuration
	Music struct {
		// YouTubeAPIKey authenticates YouTube Data API calls
		YouTubeAPIKey string `mapstructure:"youtube_api_key"`
		// Region is the chart region for the home feed
		Region string `mapstructure:"region"`
	} `mapstructure:"music"`

	// Stream extraction and relay configuration
	Stream struct {
		// YTDLPPath is the yt-dlp binary name or path
		YTDLPPath string `mapstructure:"ytdlp_path"`
		// ExtractTimeout bounds one yt-dlp invocation
		ExtractTimeout time.Duration `mapstructure:"extract_timeout"`
		// Timeout is the upstream connect and idle-read timeout
		Timeout time.Duration `mapstructure:"timeout"`
		// ChunkSize is the relay read buffer size in bytes
		ChunkSize int `mapstructure:"chunk_size"`
		// WriteTimeout is the per-chunk write deadline towards the client
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"stream"`

	// Logging configuration
	Logging struct {
		// Level is the logging level
		Level string `mapstructure:"level"`
		// Format is the logging format (json or console)
		Format string `mapstructure:"format"`
		// OutputPaths is the list of output paths for logs
		OutputPaths []string `mapstructure:"output_paths"`
		// ErrorOutputPaths is the list of output paths for error logs
		ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	} `mapstructure:"logging"`

	// RateLimit configures per-client request limiting. Requires Redis.
	RateLimit struct {
		Enabled     bool          `mapstructure:"enabled"`
		MaxRequests int           `mapstructure:"max_requests"`
		Window      time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`

	// Redis configuration
	Redis struct {
		// Enabled turns on the Redis connection used by the rate limiter
		Enabled bool `mapstructure:"enabled"`
		// Address is the host:port of the Redis server
		Address string `mapstructure:"address"`
		// Username is the Redis username
		Username string `mapstructure:"username"`
		// Password is the Redis password
		Password string `mapstructure:"password"`
		// Database is the Redis database index
		Database int `mapstructure:"database"`
		// MaxRetries is the maximum number of retries before giving up
		MaxRetries int `mapstructure:"max_retries"`
		// PoolSize is the maximum number of socket connections
		PoolSize int `mapstructure:"pool_size"`
		// DialTimeout is the timeout for establishing new connections
		DialTimeout time.Duration `mapstructure:"dial_timeout"`
		// ReadTimeout is the timeout for socket reads
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout is the timeout for socket writes
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"redis"`

	// Feature flags
	Features struct {
		// EnableMusic mounts the stream route, plus search and home when a YouTube key is set
		EnableMusic bool `mapstructure:"enable_music"`
		// EnableMetrics exposes the prometheus endpoint
		EnableMetrics bool `mapstructure:"enable_metrics"`
	} `mapstructure:"features"`
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadConfig loads the configuration from file and environment variables.
// It looks for a configuration file in the following locations:
// 1. Path specified in the CONFIG_FILE environment variable
// 2. ./configs directory
// 3. ../configs directory
// 4. /etc/mediagate directory
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("app")
	v.SetConfigType("yaml")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("/etc/mediagate")
	}

	if err := v.ReadInConfig(); err != nil {
		// Defaults and environment variables are enough to run
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if configFile == "" {
		v.SetConfigName(fmt.Sprintf("app.%s", env))
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge environment config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return unmarshal(v, env)
}

func unmarshal(v *viper.Viper, env string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Environment = env

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets the default values for the configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "1.0.0")

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "45s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.base_urls", catalog.DefaultBaseURLs)
	v.SetDefault("catalog.attempt_timeout", "10s")
	v.SetDefault("catalog.requests_per_second", 0)
	v.SetDefault("catalog.user_agent", "mediagate/1.0")

	// Music defaults
	v.SetDefault("music.youtube_api_key", "")
	v.SetDefault("music.region", "ID")

	// Stream defaults
	v.SetDefault("stream.ytdlp_path", "yt-dlp")
	v.SetDefault("stream.extract_timeout", "30s")
	v.SetDefault("stream.timeout", "60s")
	v.SetDefault("stream.chunk_size", 32*1024)
	v.SetDefault("stream.write_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.max_requests", 120)
	v.SetDefault("rate_limit.window", "1m")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Feature flags
	v.SetDefault("features.enable_music", true)
	v.SetDefault("features.enable_metrics", true)
}

// validateConfig rejects configurations the server cannot start with. Recoverable
// problems are handled by ValidateAndFixConfig instead.
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}

	if len(config.Catalog.BaseURLs) == 0 {
		return errors.New("at least one catalog base URL must be provided")
	}

	if config.Redis.Enabled && config.Redis.Address == "" {
		return errors.New("redis address must be set when redis is enabled")
	}

	return nil
}

// GetConfigString returns a formatted string with the current configuration
func GetConfigString(config *Config) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Environment: %s\n", config.Environment)
	fmt.Fprintf(&sb, "Server: %s\n", config.Addr())
	fmt.Fprintf(&sb, "Catalog Sources: %s\n", strings.Join(config.Catalog.BaseURLs, ", "))
	fmt.Fprintf(&sb, "Music Region: %s\n", config.Music.Region)
	fmt.Fprintf(&sb, "yt-dlp: %s\n", config.Stream.YTDLPPath)
	fmt.Fprintf(&sb, "Redis Enabled: %t\n", config.Redis.Enabled)
	sb.WriteString("Features:\n")
	fmt.Fprintf(&sb, "  Music Enabled: %t\n", config.Features.EnableMusic)
	fmt.Fprintf(&sb, "  Metrics Enabled: %t\n", config.Features.EnableMetrics)
	fmt.Fprintf(&sb, "  Rate Limit Enabled: %t\n", config.RateLimit.Enabled)

	return sb.String()
}
