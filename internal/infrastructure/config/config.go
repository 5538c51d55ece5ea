package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Ledger      LedgerConfig   `mapstructure:"ledger"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	BasePath          string        `mapstructure:"basePath"`
	AllowedOrigins    []string      `mapstructure:"allowedOrigins"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"` // postgres, mysql or memory
	Host               string        `mapstructure:"host"`
	Port               string        `mapstructure:"port"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	Database           string        `mapstructure:"database"`
	SSLMode            string        `mapstructure:"sslMode"`
	MaxOpenConns       int           `mapstructure:"maxOpenConns"`
	MaxIdleConns       int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime    time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime    time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout       time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts      int           `mapstructure:"retryAttempts"`
	RetryDelay         time.Duration `mapstructure:"retryDelay"`         // seconds
	SlowQueryThreshold time.Duration `mapstructure:"slowQueryThreshold"` // milliseconds
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// LedgerConfig contains balance engine settings
type LedgerConfig struct {
	MaxRetries         int           `mapstructure:"maxRetries"`
	RetryBaseDelay     time.Duration `mapstructure:"retryBaseDelay"` // milliseconds
	RetryMaxDelay      time.Duration `mapstructure:"retryMaxDelay"`  // milliseconds
	SerializeInProcess bool          `mapstructure:"serializeInProcess"`
}

// RedisConfig contains the view cache and idempotency store settings
type RedisConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Address        string        `mapstructure:"address"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	KeyPrefix      string        `mapstructure:"keyPrefix"`
	CacheTTL       time.Duration `mapstructure:"cacheTTL"`       // seconds
	IdempotencyTTL time.Duration `mapstructure:"idempotencyTTL"` // seconds
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}
