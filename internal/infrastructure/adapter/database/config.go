package database

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/config"
	"github.com/go-sql-driver/mysql"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config represents database configuration
type Config struct {
	Driver             string
	Host               string
	Port               int
	Username           string
	Password           string
	Database           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	QueryTimeout       time.Duration
	LogLevel           string
	SlowQueryThreshold time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
}

// NewConfig builds the connection settings from the application configuration
func NewConfig(db config.DatabaseConfig, logLevel string) *Config {
	return &Config{
		Driver:             db.Driver,
		Host:               db.Host,
		Port:               ParsePort(db.Port),
		Username:           db.Username,
		Password:           db.Password,
		Database:           db.Database,
		SSLMode:            db.SSLMode,
		MaxOpenConns:       db.MaxOpenConns,
		MaxIdleConns:       db.MaxIdleConns,
		ConnMaxLifetime:    db.ConnMaxLifetime,
		ConnMaxIdleTime:    db.ConnMaxIdleTime,
		QueryTimeout:       db.QueryTimeout,
		LogLevel:           logLevel,
		SlowQueryThreshold: db.SlowQueryThreshold,
		RetryAttempts:      db.RetryAttempts,
		RetryDelay:         db.RetryDelay,
	}
}

// ParsePort converts a port string to int, returning 0 when it is not a number
func ParsePort(port string) int {
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return p
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Driver != DriverPostgres && c.Driver != DriverMySQL {
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}
	if c.Host == "" {
		return errors.New("database host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}
	if c.Username == "" {
		return errors.New("database username is required")
	}
	if c.Database == "" {
		return errors.New("database name is required")
	}

	if c.Driver == DriverPostgres {
		validSSLModes := map[string]bool{
			"disable":     true,
			"require":     true,
			"verify-ca":   true,
			"verify-full": true,
			"prefer":      true,
		}
		if !validSSLModes[c.SSLMode] {
			return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
		}
	}

	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive, got: %d", c.MaxOpenConns)
	}
	if c.MaxIdleConns <= 0 {
		return fmt.Errorf("max idle connections must be positive, got: %d", c.MaxIdleConns)
	}
	if c.QueryTimeout <= 0 {
		return errors.New("query timeout must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts must be non-negative, got: %d", c.RetryAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative, got: %s", c.RetryDelay)
	}

	return nil
}

// DSN returns the connection string for the configured driver
func (c *Config) DSN() string {
	switch c.Driver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
		mc.DBName = c.Database
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.ReadTimeout = c.QueryTimeout
		mc.WriteTimeout = c.QueryTimeout
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN()
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC statement_timeout=%d",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode, c.QueryTimeout.Milliseconds(),
		)
	}
}
