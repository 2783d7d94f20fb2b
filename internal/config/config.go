package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// CIDRs whose forwarding headers are honoured
	TrustedProxies []string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP, disabled when the URL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets publishing, disabled when the spreadsheet id is empty
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string

	// Worker
	PublishInterval    time.Duration
	PublishConcurrency int

	// Export
	ExportCacheTTL  time.Duration
	ExportCacheSize int

	LogLevel string
}

var (
	validBackends  = []string{"memory", "sqlite"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		DataBackend:    getEnv("DATA_BACKEND", "sqlite"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/saa.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "saa"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "publish_controls"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		PublishInterval:    getEnvDuration("PUBLISH_INTERVAL", 10*time.Minute),
		PublishConcurrency: getEnvInt("PUBLISH_CONCURRENCY", 4),

		ExportCacheTTL:  getEnvDuration("EXPORT_CACHE_TTL", 5*time.Minute),
		ExportCacheSize: getEnvInt("EXPORT_CACHE_SIZE", 64),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

// AMQPEnabled reports whether change events are published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether workbooks are published to Google Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	for _, cidr := range c.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPEnabled() {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		errors = append(errors, c.validateGoogleCredentials()...)
	}

	if c.PublishInterval != 0 {
		if c.PublishInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid publish interval %v: must be at least 1 second", c.PublishInterval))
		} else if c.PublishInterval > 24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid publish interval %v: must be at most 24 hours", c.PublishInterval))
		}
	}

	if c.PublishConcurrency < 1 || c.PublishConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid publish concurrency %d: must be between 1 and 32", c.PublishConcurrency))
	}

	if c.ExportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid export cache TTL %v: must not be negative", c.ExportCacheTTL))
	}
	if c.ExportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid export cache size %d: must be at least 1", c.ExportCacheSize))
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// validateGoogleCredentials requires either a service account or an OAuth
// client and token pair, and checks that referenced files exist.
func (c *Config) validateGoogleCredentials() []string {
	var errors []string

	for _, f := range []struct{ name, path string }{
		{"service account", c.GoogleServiceAccountFile},
		{"OAuth client", c.GoogleOAuthClientFile},
		{"OAuth token", c.GoogleOAuthTokenFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google %s file does not exist: %s", f.name, f.path))
		}
	}

	if c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" {
		return errors
	}

	if c.GoogleOAuthClientFile == "" && c.GoogleOAuthClientJSON == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON must be provided for sheets publishing")
	}
	if c.GoogleOAuthTokenFile == "" && c.GoogleOAuthTokenJSON == "" {
		errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided for sheets publishing")
	}
	return errors
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
