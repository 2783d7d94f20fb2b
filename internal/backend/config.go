package backend

import (
	"errors"
	"fmt"

	"saa/internal/config"
	gsheet "saa/internal/sheets/google"
)

// FromAppConfig picks the backend settings out of the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("backend: nil application config")
	}
	t := BackendType(cfg.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type %q (want %s or %s)", cfg.DataBackend, SQLiteBackend, MemoryBackend)
	}

	return Config{
		Type:         t,
		SQLiteDBPath: cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,

		GoogleSpreadsheetID: cfg.GoogleSpreadsheetID,
		GoogleCredentials: gsheet.Credentials{
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			OAuthClientJSON:    cfg.GoogleOAuthClientJSON,
			OAuthClientFile:    cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:     cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:     cfg.GoogleOAuthTokenFile,
		},
	}, nil
}

// Validate reports every problem with the settings at once.
func (c Config) Validate() error {
	var errs []error
	if !c.Type.IsValid() {
		errs = append(errs, fmt.Errorf("invalid backend type: %s", c.Type))
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP exchange and queue are required when AMQP URL is set"))
	}
	return errors.Join(errs...)
}
