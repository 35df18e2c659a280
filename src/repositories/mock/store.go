package mock

import (
	"context"
	"sync"

	"github.com/khabaroff/apikeys-dashboard/src/repositories"
)

// Store is a mock implementation of repositories.Store
type Store struct {
	// Function stubs that can be overridden in tests
	SelectFunc func(ctx context.Context, table string, columns []string, filter repositories.Filter, order ...repositories.OrderBy) ([]repositories.Row, error)
	InsertFunc func(ctx context.Context, table string, row repositories.Row) (repositories.Row, error)
	UpdateFunc func(ctx context.Context, table string, patch repositories.Row, filter repositories.Filter) (int64, error)
	PingFunc   func(ctx context.Context) error

	// Call tracking
	mu    sync.Mutex
	Calls map[string][]interface{}
}

// NewStore creates a new mock store
func NewStore() *Store {
	return &Store{
		Calls: make(map[string][]interface{}),
	}
}

func (m *Store) record(name string, arg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[name] = append(m.Calls[name], arg)
}

// CallCount returns how many times name was called
func (m *Store) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls[name])
}

func (m *Store) Select(ctx context.Context, table string, columns []string, filter repositories.Filter, order ...repositories.OrderBy) ([]repositories.Row, error) {
	m.record("Select", filter)
	if m.SelectFunc != nil {
		return m.SelectFunc(ctx, table, columns, filter, order...)
	}
	return []repositories.Row{}, nil
}

func (m *Store) Insert(ctx context.Context, table string, row repositories.Row) (repositories.Row, error) {
	m.record("Insert", row)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, table, row)
	}
	return row, nil
}

func (m *Store) Update(ctx context.Context, table string, patch repositories.Row, filter repositories.Filter) (int64, error) {
	m.record("Update", patch)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, table, patch, filter)
	}
	return 0, nil
}

func (m *Store) Ping(ctx context.Context) error {
	m.record("Ping", nil)
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Ensure Store implements the interface
var _ repositories.Store = (*Store)(nil)
