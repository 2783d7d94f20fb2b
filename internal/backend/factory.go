package backend

import (
	"context"
	"fmt"
	"log/slog"

	"saa/internal/amqp"
	"saa/internal/sheets"
	gsheet "saa/internal/sheets/google"
	"saa/internal/sheets/memory"
	"saa/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var repo storage.Repository
	switch config.Type {
	case SQLiteBackend:
		sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		repo = sqliteRepo
	case MemoryBackend:
		repo = storage.NewMemoryRepository()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	// AMQP is optional; a broker that is down only disables change events
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		c, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without publishing", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			amqpClient = c
		}
	}

	result := &Result{Repository: repo, Events: amqpClient}
	result.Cleanup = func() error {
		var closeEvents func() error
		if amqpClient != nil {
			closeEvents = amqpClient.Close
		}
		return closeAll(closeEvents, repo.Close)
	}
	return result, nil
}

// CreatePublisher implements Factory.CreatePublisher
func (f *DefaultFactory) CreatePublisher(ctx context.Context, config Config) (sheets.Publisher, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Warn("No spreadsheet configured, publishing to memory")
		return memory.New(), nil
	}

	p, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleCredentials)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets publisher: %w", err)
	}
	f.logger.Info("Initialized Google Sheets publisher")
	return p, nil
}
