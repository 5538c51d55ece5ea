package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate ensures all required configuration values are present and consistent
func (c *Config) Validate() error {
	var missing []string

	switch c.Environment {
	case "":
		missing = append(missing, "environment")
	case Development, Production, Test:
	default:
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			c.Environment, Development, Production, Test)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		missing = append(missing, "server.port")
	}
	if c.Server.ReadTimeout == 0 {
		missing = append(missing, "server.readTimeout")
	}
	if c.Server.WriteTimeout == 0 {
		missing = append(missing, "server.writeTimeout")
	}
	if c.Server.ShutdownTimeout == 0 {
		missing = append(missing, "server.shutdownTimeout")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server.basePath must start with '/': %q", c.Server.BasePath)
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres", "mysql":
		for key, value := range map[string]string{
			"database.host":     c.Database.Host,
			"database.port":     c.Database.Port,
			"database.username": c.Database.Username,
			"database.database": c.Database.Database,
		} {
			if value == "" {
				missing = append(missing, fmt.Sprintf("%s (or %s_%s)", key, EnvPrefix, envName(key)))
			}
		}
		if c.Database.QueryTimeout == 0 {
			missing = append(missing, "database.queryTimeout")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q, must be postgres, mysql or memory", c.Database.Driver)
	}

	if c.Logger.Level == "" {
		missing = append(missing, "logger.level")
	}

	if c.Ledger.MaxRetries < 1 {
		missing = append(missing, "ledger.maxRetries")
	}
	if c.Ledger.RetryMaxDelay < c.Ledger.RetryBaseDelay {
		return fmt.Errorf("ledger.retryMaxDelay (%s) is lower than ledger.retryBaseDelay (%s)",
			c.Ledger.RetryMaxDelay, c.Ledger.RetryBaseDelay)
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			missing = append(missing, "redis.address")
		}
		if c.Redis.CacheTTL <= 0 {
			missing = append(missing, "redis.cacheTTL")
		}
		if c.Redis.IdempotencyTTL <= 0 {
			missing = append(missing, "redis.idempotencyTTL")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		missing = append(missing, "metrics.path")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configurations: %v", missing)
	}
	return nil
}

// Warnings lists settings that are valid but unsafe for production
func (c *Config) Warnings() []string {
	if c.Environment != Production {
		return nil
	}

	var warnings []string
	if c.Database.Driver == "memory" {
		warnings = append(warnings, "database.driver 'memory' loses all data on restart")
	}
	if c.Database.Driver == "postgres" {
		switch strings.ToLower(c.Database.SSLMode) {
		case "require", "verify-ca", "verify-full":
		default:
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}
	}
	if c.Server.ReadTimeout < 5*time.Second {
		warnings = append(warnings, "server.readTimeout is too low for production")
	}
	if c.Server.WriteTimeout < 5*time.Second {
		warnings = append(warnings, "server.writeTimeout is too low for production")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			warnings = append(warnings, "server.allowedOrigins allows any origin")
			break
		}
	}
	return warnings
}

func envName(key string) string {
	switch key {
	case "database.database":
		return "DB_NAME"
	default:
		return "DB_" + strings.ToUpper(strings.TrimPrefix(key, "database."))
	}
}
