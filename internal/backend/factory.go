package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/amqp"
	"spendlog/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	dial   func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

// CreateBackend opens the configured slot and, when an AMQP URL is set,
// the change publisher. A broker that cannot be reached is logged and
// skipped; the tracker works without it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = &BackendResult{Slot: storage.NewMemory()}
		f.logger.InfoContext(ctx, "Initialized memory backend")
	case FileBackend:
		result, err = f.createFileBackend(ctx, config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	}
	if err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	if result.Cleanup != nil {
		cleanups = append(cleanups, result.Cleanup)
	}

	if config.AMQPURL != "" {
		client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without notifications", "error", err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			cleanups = append(cleanups, client.Close)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for _, c := range cleanups {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	slot, err := storage.NewFile(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file backend", "data_directory", slot.Dir())

	return &BackendResult{Slot: slot}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Slot:    repo,
		Cleanup: repo.Close,
	}, nil
}
