package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"propcrm/internal/amqp"
	applog "propcrm/internal/log"
	"propcrm/internal/objectstore"
	"propcrm/internal/postgres"
	"propcrm/internal/storage"
	"propcrm/internal/store"
	"propcrm/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend opens the record store, the object store and, when
// configured, the broker. A broker that cannot be reached is logged and
// skipped; the other two are required.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, ping, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	objects, err := f.createObjectStore(ctx, config)
	if err != nil {
		st.Close()
		return nil, err
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Backend ready",
		applog.FieldBackend, config.Type,
		"object_store", objectStoreName(config),
		"bucket", objects.Bucket(),
		"amqp_enabled", amqpClient != nil)

	return &Result{
		Store:   st,
		Objects: objects,
		AMQP:    amqpClient,
		Ping:    ping,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, st.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(config Config) (store.Store, func(context.Context) error, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Ping, nil

	case PostgresBackend:
		repo, err := postgres.Open(config.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
		}
		f.logger.Info("Initialized postgres backend")
		return repo, repo.Ping, nil

	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		seed := filepath.Join(dataDir, "listings.json")
		st, err := memory.NewFromFile(seed)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed memory backend: %w", err)
		}
		f.logger.Info("Initialized memory backend", "seed_file", seed)
		return st, func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
}

func (f *DefaultFactory) createObjectStore(ctx context.Context, config Config) (objectstore.Store, error) {
	if objectStoreName(config) == "gcs" {
		g, err := objectstore.NewGCS(ctx, objectstore.GCSConfig{
			Bucket:          config.StorageBucket,
			PublicBaseURL:   config.PublicBaseURL,
			CredentialsFile: config.GCSCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS object store: %w", err)
		}
		return g, nil
	}
	l, err := objectstore.NewLocal(config.StorageDir, config.StorageBucket, config.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local object store: %w", err)
	}
	return l, nil
}

func objectStoreName(config Config) string {
	if config.ObjectStore == "" {
		return "local"
	}
	return config.ObjectStore
}
