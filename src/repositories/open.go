package repositories

import (
	"context"
	"fmt"

	"github.com/khabaroff/apikeys-dashboard/src/config"
	"github.com/khabaroff/apikeys-dashboard/src/database"
)

// PingStore is a Store that can report connectivity
type PingStore interface {
	Store
	Pinger
}

// Backend is an opened store with the connection that backs it
type Backend struct {
	Driver string
	Store  PingStore
	close  func()
}

// Close releases the underlying connection
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the store selected by cfg.StoreDriver and applies its schema
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver: cfg.StoreDriver,
			Store:  NewPostgresStore(db.GetPool()),
			close:  db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := database.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver: cfg.StoreDriver,
			Store:  NewSQLiteStore(db),
			close:  func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
