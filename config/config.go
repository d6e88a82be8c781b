package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string
	LogLevel    string

	// Store configuration
	StoreBackend  string // memory, redis or sqlite
	RedisURL      string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	// Chat platform configuration
	PlatformBaseURL string
	PlatformToken   string
	PlatformScopeID string
	PlatformTimeout time.Duration

	// Ticket naming and placement
	OpenCategoryName    string
	ArchiveCategoryName string
	OpenTicketPrefix    string
	ArchivedPrefix      string

	// Dispatch security
	ManageKeyHash      string
	RateLimitPerMinute int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Store
		StoreBackend:  getEnv("STORE_BACKEND", "memory"),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "ticketdesk.db"),

		// Platform
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", ""),
		PlatformToken:   getEnv("PLATFORM_TOKEN", ""),
		PlatformScopeID: getEnv("PLATFORM_SCOPE_ID", "default"),
		PlatformTimeout: getEnvAsDuration("PLATFORM_TIMEOUT", "15s"),

		// Naming
		OpenCategoryName:    getEnv("OPEN_CATEGORY_NAME", "Open Tickets"),
		ArchiveCategoryName: getEnv("ARCHIVE_CATEGORY_NAME", "Archived Tickets"),
		OpenTicketPrefix:    getEnv("OPEN_TICKET_PREFIX", "ticket-"),
		ArchivedPrefix:      getEnv("ARCHIVED_TICKET_PREFIX", "archived-"),

		// Security
		ManageKeyHash:      getEnv("MANAGE_KEY_HASH", ""),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
