package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrUnknownDriver      = errors.New("unknown database driver")
	ErrInvalidHoursPerDay = errors.New("hours per day must be between 1 and 24")
	ErrInvalidHorizon     = errors.New("schedule horizon must be positive")
	ErrInvalidBuffer      = errors.New("release buffer must not be negative")
	ErrInvalidAIRate      = errors.New("AI requests per minute must be positive")
)

type Config struct {
	DBDriver            string
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	SQLitePath          string
	RedisHost           string
	RedisPort           string
	SessionSecret       string
	GinMode             string
	Port                string
	OpenAIAPIKey        string
	AIRequestsPerMinute int
	LogLevel            string
	LogJSON             bool

	HoursPerDay         int
	ReleaseBufferDays   int
	ScheduleHorizonDays int
	HolidaysFile        string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:            getEnv("DB_DRIVER", "mysql"),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "3306"),
		DBUser:              getEnv("DB_USER", "planner"),
		DBPassword:          getEnv("DB_PASSWORD", "plannerpassword"),
		DBName:              getEnv("DB_NAME", "sprint_planner"),
		SQLitePath:          getEnv("SQLITE_PATH", "planner.db"),
		RedisHost:           getEnv("REDIS_HOST", "localhost"),
		RedisPort:           getEnv("REDIS_PORT", "6379"),
		SessionSecret:       getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		Port:                getEnv("PORT", "8080"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		AIRequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 10),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogJSON:             getEnvBool("LOG_JSON", false),
		HoursPerDay:         getEnvInt("HOURS_PER_DAY", 8),
		ReleaseBufferDays:   getEnvInt("RELEASE_BUFFER_DAYS", 0),
		ScheduleHorizonDays: getEnvInt("SCHEDULE_HORIZON_DAYS", 1830),
		HolidaysFile:        getEnv("HOLIDAYS_FILE", ""),
	}
}

// Validate checks the values that would otherwise fail deep inside a
// scheduling pass.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}
	if c.HoursPerDay <= 0 || c.HoursPerDay > 24 {
		return ErrInvalidHoursPerDay
	}
	if c.ScheduleHorizonDays <= 0 {
		return ErrInvalidHorizon
	}
	if c.ReleaseBufferDays < 0 {
		return ErrInvalidBuffer
	}
	if c.AIRequestsPerMinute <= 0 {
		return ErrInvalidAIRate
	}
	return nil
}

// WorkDay is the configured length of a full working day.
func (c *Config) WorkDay() time.Duration {
	return time.Duration(c.HoursPerDay) * time.Hour
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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
