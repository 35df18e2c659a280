package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/khabaroff/apikeys-dashboard/src/models"
)

// Row is a single loosely typed record as returned by a Store
type Row map[string]any

// Filter holds equality predicates, combined with AND
type Filter map[string]any

// OrderBy orders a Select by one column
type OrderBy struct {
	Column string
	Desc   bool
}

// Store is the minimal query interface the key registry needs from a relational store
type Store interface {
	// Select returns rows matching every predicate in filter, ordered as requested.
	// A nil or empty columns slice selects every known column of the table.
	Select(ctx context.Context, table string, columns []string, filter Filter, order ...OrderBy) ([]Row, error)

	// Insert writes row and returns it as stored, including generated columns
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// Update applies patch to every row matching filter and returns the matched row count
	Update(ctx context.Context, table string, patch Row, filter Filter) (int64, error)
}

var (
	// ErrUnavailable indicates the store could not be reached or the statement failed
	ErrUnavailable = errors.New("store unavailable")

	// ErrConflict indicates a unique constraint rejected the write
	ErrConflict = errors.New("unique constraint violation")

	// ErrInvalidQuery indicates an unknown table or column
	ErrInvalidQuery = errors.New("invalid query")
)

// tableColumns whitelists identifiers per table. Values never reach SQL text
// without passing through this map.
var tableColumns = map[string][]string{
	models.TableAPIKeys: {"id", "name", "key", "type", "created_at", "last_used_at", "is_active"},
}

// orderOnlyColumns may appear in ORDER BY but are never selected
var orderOnlyColumns = map[string][]string{
	models.TableAPIKeys: {"seq"},
}

func knownColumn(table, column string) bool {
	for _, c := range tableColumns[table] {
		if c == column {
			return true
		}
	}
	return false
}

func orderableColumn(table, column string) bool {
	if knownColumn(table, column) {
		return true
	}
	for _, c := range orderOnlyColumns[table] {
		if c == column {
			return true
		}
	}
	return false
}

// checkTable returns the table's column list or ErrInvalidQuery
func checkTable(table string) ([]string, error) {
	cols, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", ErrInvalidQuery, table)
	}
	return cols, nil
}

// resolveColumns validates the requested columns, defaulting to all of them
func resolveColumns(table string, columns []string) ([]string, error) {
	all, err := checkTable(table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return all, nil
	}
	for _, c := range columns {
		if !knownColumn(table, c) {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidQuery, c)
		}
	}
	return columns, nil
}

// sortedKeys returns map keys in a stable order after checking each one
func sortedKeys[M ~map[string]any](table string, m M) ([]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if !knownColumn(table, k) {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidQuery, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// orderClause renders ORDER BY using quote for identifiers
func orderClause(table string, order []OrderBy, quote func(string) string) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		if !orderableColumn(table, o.Column) {
			return "", fmt.Errorf("%w: cannot order by %q", ErrInvalidQuery, o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, quote(o.Column)+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// Pinger is implemented by stores that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Store  = (*PostgresStore)(nil)
	_ Store  = (*SQLiteStore)(nil)
	_ Pinger = (*PostgresStore)(nil)
	_ Pinger = (*SQLiteStore)(nil)
)
