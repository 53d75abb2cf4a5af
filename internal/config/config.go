// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/georegions/regions/internal/query"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Regions  RegionsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env       string
	LogLevel  string
	LogFormat string
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// IsProduction returns true if the app is running in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// TrustProxy enables X-Forwarded-For and X-Real-IP handling.
	TrustProxy bool
	// TrustedProxies limits TrustProxy to these peer addresses when set.
	TrustedProxies []string
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects where regions are read from.
type StorageConfig struct {
	Type       string
	SQLitePath string
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// RegionsConfig holds the listing contract: allowed values, bounds and the
// language of validation messages.
type RegionsConfig struct {
	CountryCodes    []string
	PageSizes       []int
	DefaultPageSize int
	QMinLength      int
	QMaxLength      int
	Locale          string
	CacheTTL        time.Duration
}

// LoadDotEnv loads variables from the given .env files. Missing files are
// skipped and variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	// App config
	cfg.App.Env = getEnvOrDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.App.LogFormat = getEnvOrDefault("LOG_FORMAT", "json")

	// Server config
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", "0.0.0.0")

	port, err := getEnvAsInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = port

	readTimeout, err := getEnvAsDuration("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	cfg.Server.ReadTimeout = readTimeout

	writeTimeout, err := getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	cfg.Server.WriteTimeout = writeTimeout

	shutdownTimeout, err := getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.Server.ShutdownTimeout = shutdownTimeout

	trustProxy, err := getEnvAsBool("SERVER_TRUST_PROXY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_TRUST_PROXY: %w", err)
	}
	cfg.Server.TrustProxy = trustProxy
	cfg.Server.TrustedProxies = getEnvAsList("SERVER_TRUSTED_PROXIES", nil)

	// Storage config
	cfg.Storage.Type = strings.ToLower(getEnvOrDefault("STORAGE_TYPE", StorageMemory))
	cfg.Storage.SQLitePath = getEnvOrDefault("SQLITE_PATH", ".data/regions.db")

	// Database config
	cfg.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	dbPort, err := getEnvAsInt("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort
	cfg.Database.User = getEnvOrDefault("DB_USER", "regions")
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", "")
	cfg.Database.DBName = getEnvOrDefault("DB_NAME", "regions")
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	maxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.Database.MaxOpenConns = maxOpenConns

	maxIdleConns, err := getEnvAsInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	cfg.Database.MaxIdleConns = maxIdleConns

	connMaxLifetime, err := getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	cfg.Database.ConnMaxLifetime = connMaxLifetime

	// Redis config
	redisEnabled, err := getEnvAsBool("REDIS_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}
	cfg.Redis.Enabled = redisEnabled
	cfg.Redis.Host = getEnvOrDefault("REDIS_HOST", "localhost")
	redisPort, err := getEnvAsInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB
	redisPoolSize, err := getEnvAsInt("REDIS_POOL_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}
	cfg.Redis.PoolSize = redisPoolSize

	// Regions contract
	defaults := query.DefaultRules()
	cfg.Regions.CountryCodes = getEnvAsList("REGIONS_COUNTRY_CODES", defaults.AllowedCountryCodes)

	pageSizes, err := getEnvAsIntList("REGIONS_PAGE_SIZES", defaults.AllowedPageSizes)
	if err != nil {
		return nil, fmt.Errorf("invalid REGIONS_PAGE_SIZES: %w", err)
	}
	cfg.Regions.PageSizes = pageSizes

	defaultPageSize, err := getEnvAsInt("REGIONS_DEFAULT_PAGE_SIZE", defaults.DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("invalid REGIONS_DEFAULT_PAGE_SIZE: %w", err)
	}
	cfg.Regions.DefaultPageSize = defaultPageSize

	qMin, err := getEnvAsInt("REGIONS_Q_MIN_LENGTH", defaults.QMinLength)
	if err != nil {
		return nil, fmt.Errorf("invalid REGIONS_Q_MIN_LENGTH: %w", err)
	}
	cfg.Regions.QMinLength = qMin

	qMax, err := getEnvAsInt("REGIONS_Q_MAX_LENGTH", defaults.QMaxLength)
	if err != nil {
		return nil, fmt.Errorf("invalid REGIONS_Q_MAX_LENGTH: %w", err)
	}
	cfg.Regions.QMaxLength = qMax

	cfg.Regions.Locale = getEnvOrDefault("REGIONS_LOCALE", "en")

	cacheTTL, err := getEnvAsDuration("REGIONS_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid REGIONS_CACHE_TTL: %w", err)
	}
	cfg.Regions.CacheTTL = cacheTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports configuration that cannot serve requests.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StoragePostgres, StorageSQLite:
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be one of memory, postgres, sqlite", c.Storage.Type)
	}

	if c.Storage.Type == StorageSQLite && c.Storage.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required for sqlite storage")
	}

	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("invalid regions configuration: %w", err)
	}

	if _, err := c.Messages(); err != nil {
		return fmt.Errorf("invalid REGIONS_LOCALE: %w", err)
	}

	if c.Redis.Enabled && c.Regions.CacheTTL <= 0 {
		return errors.New("REGIONS_CACHE_TTL must be positive when Redis is enabled")
	}

	return nil
}

// Rules returns the listing rules described by the regions configuration.
func (c *Config) Rules() query.Rules {
	return query.Rules{
		AllowedCountryCodes: c.Regions.CountryCodes,
		AllowedPageSizes:    c.Regions.PageSizes,
		DefaultPage:         1,
		DefaultPageSize:     c.Regions.DefaultPageSize,
		QMinLength:          c.Regions.QMinLength,
		QMaxLength:          c.Regions.QMaxLength,
	}
}

// Messages returns the validation message catalog for the configured locale.
func (c *Config) Messages() (query.Messages, error) {
	return query.MessagesFor(c.Regions.Locale)
}

// DatabaseEnabled returns true if regions are served from PostgreSQL.
func (c *Config) DatabaseEnabled() bool {
	return c.Storage.Type == StoragePostgres
}

// RedisEnabled returns true if the Redis page cache is turned on.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Enabled && c.Redis.Host != ""
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// getEnvAsBool returns the environment variable as a boolean.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(valueStr)
}

// getEnvAsDuration returns the environment variable as a duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// getEnvAsList returns a comma-separated environment variable as a list of
// trimmed, non-empty values.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsIntList returns a comma-separated environment variable as integers.
func getEnvAsIntList(key string, defaultValue []int) ([]int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]int(nil), defaultValue...), nil
	}
	var out []int
	for _, part := range getEnvAsList(key, nil) {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
