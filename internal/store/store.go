// Package store persists conversation records.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarthi-ai/voicechat/internal/model"
)

// ErrUnavailable is returned when the backing database cannot be reached.
var ErrUnavailable = errors.New("store unavailable")

// ConversationStore is the persistence contract for exchange records.
// Records are created whole and never updated or deleted.
type ConversationStore interface {
	// Create inserts one record and returns it with id and createdAt set.
	Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error)

	// List returns every record in insertion order.
	List(ctx context.Context) ([]model.Conversation, error)

	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options configures Open.
type Options struct {
	Driver   string
	Postgres PostgresConfig
}

// Open constructs the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (ConversationStore, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverPostgres, "":
		return NewPostgresStore(ctx, opts.Postgres)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
