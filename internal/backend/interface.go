package backend

import (
	"context"

	"spendlog/internal/services"
	"spendlog/internal/storage"
)

// CleanupFunc releases what a backend opened.
type CleanupFunc func() error

// BackendResult is the slot the store persists to, plus the optional change
// publisher. Publisher is nil when AMQP is disabled or unreachable.
type BackendResult struct {
	Slot      storage.Slot
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	DataDirectory string
	SQLiteDBPath  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
