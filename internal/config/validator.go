// Package config provides functionality for loading and accessing application configuration.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"norelock.dev/mediagate/backend/internal/services/catalog"
	"norelock.dev/mediagate/backend/internal/utils"
)

const (
	minChunkSize = 1024
	maxChunkSize = 1024 * 1024
)

// ValidateAndFixConfig validates the configuration and fixes any issues.
// Every fix is reported as a warning to be logged at startup.
func ValidateAndFixConfig(config *Config) []string {
	var warnings []string

	// Check server timeouts
	minTimeout := 1 * time.Second
	maxTimeout := 5 * time.Minute

	if config.Server.ReadTimeout < minTimeout {
		warnings = append(warnings, fmt.Sprintf("Server read timeout is too short (%v), setting to %v", config.Server.ReadTimeout, minTimeout))
		config.Server.ReadTimeout = minTimeout
	} else if config.Server.ReadTimeout > maxTimeout {
		warnings = append(warnings, fmt.Sprintf("Server read timeout is too long (%v), setting to %v", config.Server.ReadTimeout, maxTimeout))
		config.Server.ReadTimeout = maxTimeout
	}

	// Zero disables the server-wide write timeout
	if config.Server.WriteTimeout < 0 {
		warnings = append(warnings, fmt.Sprintf("Server write timeout is negative (%v), disabling it", config.Server.WriteTimeout))
		config.Server.WriteTimeout = 0
	} else if config.Server.WriteTimeout > 0 && config.Server.WriteTimeout < config.Catalog.AttemptTimeout*time.Duration(len(config.Catalog.BaseURLs)) {
		warnings = append(warnings, fmt.Sprintf("Server write timeout (%v) is shorter than a full catalog fallback (%d x %v)",
			config.Server.WriteTimeout, len(config.Catalog.BaseURLs), config.Catalog.AttemptTimeout))
	}

	if config.Server.IdleTimeout < minTimeout {
		warnings = append(warnings, fmt.Sprintf("Server idle timeout is too short (%v), setting to %v", config.Server.IdleTimeout, minTimeout))
		config.Server.IdleTimeout = minTimeout
	}

	if config.Server.ShutdownTimeout < minTimeout {
		warnings = append(warnings, fmt.Sprintf("Server shutdown timeout is too short (%v), setting to %v", config.Server.ShutdownTimeout, minTimeout))
		config.Server.ShutdownTimeout = minTimeout
	}

	if len(config.Server.AllowedOrigins) == 0 {
		warnings = append(warnings, "No CORS origins configured, allowing all origins")
		config.Server.AllowedOrigins = []string{"*"}
	}

	warnings = append(warnings, fixCatalog(config)...)
	warnings = append(warnings, fixMusic(config)...)
	warnings = append(warnings, fixStream(config)...)
	warnings = append(warnings, fixRateLimit(config)...)

	// Check Redis address
	if config.Redis.Enabled {
		host, port, err := net.SplitHostPort(config.Redis.Address)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid Redis address: %s", config.Redis.Address))
		} else {
			if host == "" {
				warnings = append(warnings, fmt.Sprintf("Redis address has empty host: %s", config.Redis.Address))
			}
			if port == "" {
				warnings = append(warnings, fmt.Sprintf("Redis address has empty port: %s", config.Redis.Address))
			}
		}
	}

	warnings = append(warnings, fixLogging(config)...)

	return warnings
}

func fixCatalog(config *Config) []string {
	var warnings []string

	valid := lo.Filter(config.Catalog.BaseURLs, func(raw string, _ int) bool {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			warnings = append(warnings, fmt.Sprintf("Ignoring invalid catalog base URL: %q", raw))
			return false
		}
		return true
	})
	valid = lo.Map(valid, func(raw string, _ int) string { return strings.TrimRight(raw, "/") })
	valid = lo.Uniq(valid)

	if len(valid) == 0 {
		warnings = append(warnings, "No valid catalog base URLs, using the public MangaDex hosts")
		valid = slices.Clone(catalog.DefaultBaseURLs)
	}
	config.Catalog.BaseURLs = valid

	if config.Catalog.AttemptTimeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("Catalog attempt timeout must be positive (%v), setting to 10s", config.Catalog.AttemptTimeout))
		config.Catalog.AttemptTimeout = 10 * time.Second
	}

	if config.Catalog.RequestsPerSecond < 0 {
		warnings = append(warnings, "Catalog requests per second is negative, disabling outbound pacing")
		config.Catalog.RequestsPerSecond = 0
	}

	if strings.TrimSpace(config.Catalog.UserAgent) == "" {
		warnings = append(warnings, "Catalog user agent is empty, setting to 'mediagate/1.0'")
		config.Catalog.UserAgent = "mediagate/1.0"
	}

	return warnings
}

func fixMusic(config *Config) []string {
	var warnings []string

	// Streaming only needs yt-dlp; search and home need the key
	if config.Features.EnableMusic && config.Music.YouTubeAPIKey == "" {
		warnings = append(warnings, "YouTube API key is not set, music search and home are disabled")
	}

	region := strings.ToUpper(strings.TrimSpace(config.Music.Region))
	if len(region) != 2 {
		warnings = append(warnings, fmt.Sprintf("Invalid music region: %q, setting to 'ID'", config.Music.Region))
		region = "ID"
	}
	config.Music.Region = region

	return warnings
}

func fixStream(config *Config) []string {
	var warnings []string

	if strings.TrimSpace(config.Stream.YTDLPPath) == "" {
		warnings = append(warnings, "yt-dlp path is empty, setting to 'yt-dlp'")
		config.Stream.YTDLPPath = "yt-dlp"
	}

	if config.Stream.ExtractTimeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("Stream extract timeout must be positive (%v), setting to 30s", config.Stream.ExtractTimeout))
		config.Stream.ExtractTimeout = 30 * time.Second
	}

	if config.Stream.Timeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("Stream timeout must be positive (%v), setting to 60s", config.Stream.Timeout))
		config.Stream.Timeout = 60 * time.Second
	}

	if config.Stream.WriteTimeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("Stream write timeout must be positive (%v), setting to 30s", config.Stream.WriteTimeout))
		config.Stream.WriteTimeout = 30 * time.Second
	}

	if config.Stream.ChunkSize < minChunkSize || config.Stream.ChunkSize > maxChunkSize {
		clamped := lo.Clamp(config.Stream.ChunkSize, minChunkSize, maxChunkSize)
		warnings = append(warnings, fmt.Sprintf("Stream chunk size %d is out of range, setting to %d", config.Stream.ChunkSize, clamped))
		config.Stream.ChunkSize = clamped
	}

	return warnings
}

func fixRateLimit(config *Config) []string {
	if !config.RateLimit.Enabled {
		return nil
	}

	var warnings []string

	if !config.Redis.Enabled {
		warnings = append(warnings, "Rate limiting requires Redis, disabling rate limiting")
		config.RateLimit.Enabled = false
		return warnings
	}

	if config.RateLimit.MaxRequests <= 0 {
		warnings = append(warnings, fmt.Sprintf("Rate limit max requests must be positive (%d), setting to 120", config.RateLimit.MaxRequests))
		config.RateLimit.MaxRequests = 120
	}

	if config.RateLimit.Window < time.Second {
		warnings = append(warnings, fmt.Sprintf("Rate limit window is too short (%v), setting to 1m", config.RateLimit.Window))
		config.RateLimit.Window = time.Minute
	}

	return warnings
}

func fixLogging(config *Config) []string {
	var warnings []string

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"panic": true,
		"fatal": true,
	}

	if !validLevels[strings.ToLower(config.Logging.Level)] {
		warnings = append(warnings, fmt.Sprintf("Invalid logging level: %s, setting to 'info'", config.Logging.Level))
		config.Logging.Level = "info"
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[strings.ToLower(config.Logging.Format)] {
		warnings = append(warnings, fmt.Sprintf("Invalid logging format: %s, setting to 'json'", config.Logging.Format))
		config.Logging.Format = "json"
	}

	// Check if output paths exist and are writable
	for _, path := range config.Logging.OutputPaths {
		if path == "stdout" || path == "stderr" {
			continue
		}
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			warnings = append(warnings, fmt.Sprintf("Log output directory does not exist: %s", dir))
			continue
		}
		testFile := filepath.Join(dir, ".test_write")
		if err := os.WriteFile(testFile, []byte{}, 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("Log output directory is not writable: %s", dir))
		} else {
			os.Remove(testFile)
		}
	}

	return warnings
}

// LoggerOptions maps the logging section onto logger options.
func LoggerOptions(config *Config) utils.LoggerOptions {
	return utils.LoggerOptions{
		Development:      strings.EqualFold(config.Logging.Format, "console"),
		Level:            utils.ParseLevel(config.Logging.Level),
		OutputPaths:      config.Logging.OutputPaths,
		ErrorOutputPaths: config.Logging.ErrorOutputPaths,
	}
}
