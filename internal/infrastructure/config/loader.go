package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix prefixes every environment override, e.g. WL_DB_HOST
const EnvPrefix = "WL"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads configuration for the environment named by WL_ENV
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	return Load(getEnvironment(), ConfigPaths...)
}

// Load reads <env>.yaml from the given paths, applies defaults and environment
// overrides, and converts raw duration values. A missing config file is not an error.
func Load(env string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			lastError = err
			continue
		}
		return nil
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}

	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.basePath", "/api")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.maxIdleConns", 25)
	v.SetDefault("database.connMaxLifetime", 30)     // minutes
	v.SetDefault("database.connMaxIdleTime", 15)     // minutes
	v.SetDefault("database.queryTimeout", 5)         // seconds
	v.SetDefault("database.retryAttempts", 3)        //
	v.SetDefault("database.retryDelay", 1)           // seconds
	v.SetDefault("database.slowQueryThreshold", 200) // milliseconds

	v.SetDefault("logger.level", "info")

	v.SetDefault("ledger.maxRetries", 3)
	v.SetDefault("ledger.retryBaseDelay", 10) // milliseconds
	v.SetDefault("ledger.retryMaxDelay", 200) // milliseconds
	v.SetDefault("ledger.serializeInProcess", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.keyPrefix", "wallet-ledger")
	v.SetDefault("redis.cacheTTL", 60)          // seconds
	v.SetDefault("redis.idempotencyTTL", 86400) // seconds

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// getEnvironment determines the environment to use based on WL_ENV
func getEnvironment() string {
	env := os.Getenv(EnvPrefix + "_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides makes the documented short variable names win over file values
func processEnvOverrides(v *viper.Viper) {
	for name, key := range map[string]string{
		"DB_DRIVER":      "database.driver",
		"DB_HOST":        "database.host",
		"DB_PORT":        "database.port",
		"DB_USERNAME":    "database.username",
		"DB_PASSWORD":    "database.password",
		"DB_NAME":        "database.database",
		"DB_SSL_MODE":    "database.sslMode",
		"SERVER_HOST":    "server.host",
		"LOGGER_LEVEL":   "logger.level",
		"REDIS_ADDRESS":  "redis.address",
		"REDIS_PASSWORD": "redis.password",
	} {
		if value := os.Getenv(EnvPrefix + "_" + name); value != "" {
			v.Set(key, value)
		}
	}

	if value := os.Getenv(EnvPrefix + "_SERVER_ALLOWED_ORIGINS"); value != "" {
		v.Set("server.allowedOrigins", strings.Split(value, ","))
	}

	for name, key := range map[string]string{
		"SERVER_PORT":        "server.port",
		"DB_MAX_OPEN_CONNS":  "database.maxOpenConns",
		"DB_MAX_IDLE_CONNS":  "database.maxIdleConns",
		"DB_RETRY_ATTEMPTS":  "database.retryAttempts",
		"LEDGER_MAX_RETRIES": "ledger.maxRetries",
		"REDIS_DB":           "redis.db",
	} {
		if value, ok := getEnvInt(EnvPrefix + "_" + name); ok {
			v.Set(key, value)
		}
	}

	for name, key := range map[string]string{
		"REDIS_ENABLED":   "redis.enabled",
		"METRICS_ENABLED": "metrics.enabled",
	} {
		if value, ok := getEnvBool(EnvPrefix + "_" + name); ok {
			v.Set(key, value)
		}
	}
}

func getEnvInt(name string) (int, bool) {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0, false
	}
	return val, true
}

func getEnvBool(name string) (bool, bool) {
	val, err := strconv.ParseBool(os.Getenv(name))
	if err != nil {
		return false, false
	}
	return val, true
}

// processDurations converts time.Duration fields from their raw values to actual durations
func processDurations(config *Config) {
	config.Server.ReadTimeout *= time.Second
	config.Server.WriteTimeout *= time.Second
	config.Server.IdleTimeout *= time.Second
	config.Server.ReadHeaderTimeout *= time.Second
	config.Server.ShutdownTimeout *= time.Second

	config.Database.ConnMaxLifetime *= time.Minute
	config.Database.ConnMaxIdleTime *= time.Minute
	config.Database.QueryTimeout *= time.Second
	config.Database.RetryDelay *= time.Second
	config.Database.SlowQueryThreshold *= time.Millisecond

	config.Ledger.RetryBaseDelay *= time.Millisecond
	config.Ledger.RetryMaxDelay *= time.Millisecond

	config.Redis.CacheTTL *= time.Second
	config.Redis.IdempotencyTTL *= time.Second
}
