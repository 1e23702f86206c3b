package backend

import (
	"context"

	"propcrm/internal/amqp"
	"propcrm/internal/objectstore"
	"propcrm/internal/store"
)

// CleanupFunc releases the resources a backend holds.
type CleanupFunc func() error

// Result is everything the services need from the outside world.
type Result struct {
	Store   store.Store
	Objects objectstore.Store
	// AMQP is nil when no broker is configured or it was unreachable.
	AMQP    *amqp.Client
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory backend seed directory
	DataDirectory string

	// Object storage
	ObjectStore        string
	StorageDir         string
	StorageBucket      string
	PublicBaseURL      string
	GCSCredentialsFile string

	// AMQP is optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
