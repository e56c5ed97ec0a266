package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Server   ServerConfig
	App      AppConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	PoolSize int
}

type ServerConfig struct {
	Port string
}

type AppConfig struct {
	LogLevel string
	// BusinessTimeZone is the zone every instant is bucketed into before
	// any day-level aggregation.
	BusinessTimeZone string
	// MaxRangeDays caps how many days one statement request may span.
	MaxRangeDays int
	// LookbackDays bounds the cross-month balance scan.
	LookbackDays int
	// MinReasonLength is the minimum reversal reason length when one is given.
	MinReasonLength int
	// PendingTTL / SettledTTL drive the cache split between reports that
	// still contain open days and fully settled ones.
	PendingTTL time.Duration
	SettledTTL time.Duration
	BatchSize  int
}

func Load() (*Config, error) {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bancas_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Address:  getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			BusinessTimeZone: getEnv("BUSINESS_TIMEZONE", "America/Costa_Rica"),
			MaxRangeDays:     getEnvInt("MAX_RANGE_DAYS", 92),
			LookbackDays:     getEnvInt("LOOKBACK_DAYS", 120),
			MinReasonLength:  getEnvInt("MIN_REVERSAL_REASON_LENGTH", 5),
			PendingTTL:       getEnvDuration("CACHE_PENDING_TTL", 60*time.Second),
			SettledTTL:       getEnvDuration("CACHE_SETTLED_TTL", time.Hour),
			BatchSize:        getEnvInt("BATCH_SIZE", 10000),
		},
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
