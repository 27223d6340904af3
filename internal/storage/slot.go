// Package storage provides durable key-value slots. A slot holds one opaque
// value per key and is the only persistence the expense store relies on.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("slot key not found")

// Slot is a durable key-value location. Put must be durable when it returns.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
