// Package config provides configuration management for the patchwork service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	// CircuitBreaker guards whichever remote backend is selected.
	CircuitBreaker CircuitBreakerConfig
	Providers ProvidersConfig
	Fetcher   FetcherConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string
	SwaggerUser string
	SwaggerPass string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// CacheConfig holds image cache configuration.
type CacheConfig struct {
	// Provider selects the storage backend: filesystem, redis (alias kv) or mongodb.
	Provider   string
	Dir        string
	MaxSizeMB  int
	MaxEntries int
	ScanBatch  int
	Coalesce   bool
	// TTLs maps a period to its time-to-live.
	TTLs map[string]time.Duration
}

// MaxSizeBytes returns the configured size bound in bytes.
func (c CacheConfig) MaxSizeBytes() int64 {
	return int64(c.MaxSizeMB) * 1024 * 1024
}

// RedisConfig holds the remote key-value store configuration.
type RedisConfig struct {
	URL string
}

// CircuitBreakerConfig holds the breaker settings for the redis and mongodb backends.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DatabaseConfig holds MongoDB configuration.
type DatabaseConfig struct {
	URI          string
	DatabaseName string
	Collection   string
}

// ProvidersConfig holds the listening statistics provider endpoints.
type ProvidersConfig struct {
	LastFMAPIKey       string
	LastFMAPIURL       string
	ListenBrainzAPIURL string
	CoverArtAPIURL     string
	UserAgent          string
	RequestTimeout     time.Duration
}

// FetcherConfig holds cover download configuration.
type FetcherConfig struct {
	Concurrency int
	Timeout     time.Duration
	Retries     int
	BatchDelay  time.Duration
}

// AnalyticsConfig holds the Matomo page-view tracking configuration.
type AnalyticsConfig struct {
	Enabled   bool
	Host      string
	SiteID    string
	TokenAuth string
}

// Load creates a Config from environment variables.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			RateLimit:   getEnvInt("RATE_LIMIT", 60),
			RateWindow:  getEnvDuration("RATE_WINDOW", time.Minute),
			CORSOrigins: parseCORSOrigins(os.Getenv("CORS_ORIGINS")),
			SwaggerUser: getEnv("SWAGGER_USER", ""),
			SwaggerPass: getEnv("SWAGGER_PASS", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		Cache: CacheConfig{
			Provider:   strings.ToLower(getEnv("CACHE_PROVIDER", "filesystem")),
			Dir:        getEnv("CACHE_DIR", "./cache/images"),
			MaxSizeMB:  getEnvInt("CACHE_MAX_SIZE_MB", 1024),
			MaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 10000),
			ScanBatch:  getEnvInt("CACHE_SCAN_BATCH", 100),
			Coalesce:   getEnvBool("CACHE_COALESCE", false),
			TTLs: map[string]time.Duration{
				"7day":    getEnvHours("CACHE_TTL_7DAY", 6),
				"1month":  getEnvHours("CACHE_TTL_1MONTH", 12),
				"3month":  getEnvHours("CACHE_TTL_3MONTH", 24),
				"6month":  getEnvHours("CACHE_TTL_6MONTH", 48),
				"12month": getEnvHours("CACHE_TTL_12MONTH", 72),
				"overall": getEnvHours("CACHE_TTL_OVERALL", 168),
			},
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Database: DatabaseConfig{
			URI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			DatabaseName: getEnv("MONGODB_DATABASE", "patchwork"),
			Collection:   getEnv("MONGODB_COLLECTION", "image_cache"),
		},
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: getEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			SuccessThreshold: getEnvInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
			Timeout:          getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
		},
		Providers: ProvidersConfig{
			LastFMAPIKey:       getEnv("LASTFM_API_KEY", ""),
			LastFMAPIURL:       getEnv("LASTFM_API_URL", "https://ws.audioscrobbler.com/2.0/"),
			ListenBrainzAPIURL: getEnv("LISTENBRAINZ_API_URL", "https://api.listenbrainz.org/1"),
			CoverArtAPIURL:     getEnv("COVERART_API_URL", "https://coverartarchive.org"),
			UserAgent:          getEnv("USER_AGENT", "Patchwork-Generator/1.0"),
			RequestTimeout:     getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),
		},
		Fetcher: FetcherConfig{
			Concurrency: getEnvInt("FETCH_CONCURRENCY", 5),
			Timeout:     getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
			Retries:     getEnvInt("FETCH_RETRIES", 3),
			BatchDelay:  getEnvDuration("FETCH_BATCH_DELAY", 100*time.Millisecond),
		},
		Analytics: AnalyticsConfig{
			Enabled:   getEnvBool("MATOMO_ENABLED", false),
			Host:      getEnv("MATOMO_HOST", ""),
			SiteID:    getEnv("MATOMO_SITE_ID", ""),
			TokenAuth: getEnv("MATOMO_TOKEN_AUTH", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvHours reads a number of hours (fractions allowed) and returns it as a duration.
func getEnvHours(key string, defaultHours float64) time.Duration {
	hours := defaultHours
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			hours = f
		}
	}
	return time.Duration(hours * float64(time.Hour))
}

func parseCORSOrigins(s string) []string {
	// Default origins for local development
	defaults := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if s == "" {
		return defaults
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts)+len(defaults))
	result = append(result, defaults...)
	for _, p := range parts {
		if origin := strings.TrimSpace(p); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
