package backend

import (
	"context"
	"errors"

	"saa/internal/amqp"
	"saa/internal/services"
	"saa/internal/sheets"
	gsheet "saa/internal/sheets/google"
	"saa/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result bundles the storage backend with the optional event client.
type Result struct {
	Repository storage.Repository
	// Events is nil when AMQP is disabled.
	Events  *amqp.Client
	Cleanup CleanupFunc
}

// EventPublisher returns the event client as a service dependency, or a
// nil interface when AMQP is disabled.
func (r *Result) EventPublisher() services.EventPublisher {
	if r.Events == nil {
		return nil
	}
	return r.Events
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the repository and, when configured, the AMQP client.
	CreateBackend(ctx context.Context, config Config) (*Result, error)
	// CreatePublisher returns the spreadsheet the worker publishes to.
	CreatePublisher(ctx context.Context, config Config) (sheets.Publisher, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets, memory publisher when GoogleSpreadsheetID is empty
	GoogleSpreadsheetID string
	GoogleCredentials   gsheet.Credentials
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

func closeAll(closers ...func() error) error {
	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
