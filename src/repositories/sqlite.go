package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteTimeLayout is fixed width so that text ordering matches time ordering
const SQLiteTimeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore implements Store on a sqlx handle opened with the modernc driver
type SQLiteStore struct {
	db *sqlx.DB
	// now is swapped in tests
	now func() time.Time
}

// NewSQLiteStore creates a store backed by db
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Select implements Store
func (s *SQLiteStore) Select(ctx context.Context, table string, columns []string, filter Filter, order ...OrderBy) ([]Row, error) {
	query, args, err := sqliteDialect.buildSelect(table, columns, filter, order)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, "select", query, sqliteArgs(args))
}

// Insert implements Store. SQLite has no uuid or clock defaults we rely on, so
// id and created_at are filled here when the caller left them out.
func (s *SQLiteStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	filled := make(Row, len(row)+2)
	for k, v := range row {
		filled[k] = v
	}
	if _, ok := filled["id"]; !ok && knownColumn(table, "id") {
		filled["id"] = uuid.NewString()
	}
	if _, ok := filled["created_at"]; !ok && knownColumn(table, "created_at") {
		filled["created_at"] = s.now().UTC()
	}

	query, args, err := sqliteDialect.buildInsert(table, filled)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, "insert", query, sqliteArgs(args))
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("%w: insert returned %d rows", ErrUnavailable, len(rows))
	}
	return rows[0], nil
}

// Update implements Store
func (s *SQLiteStore) Update(ctx context.Context, table string, patch Row, filter Filter) (int64, error) {
	query, args, err := sqliteDialect.buildUpdate(table, patch, filter)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, sqliteArgs(args)...)
	if err != nil {
		return 0, classifySQLiteError("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classifySQLiteError("update", err)
	}
	return n, nil
}

// Ping checks connectivity
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classifySQLiteError("ping", err)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, op, query string, args []any) ([]Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, classifySQLiteError(op, err)
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, classifySQLiteError(op, err)
		}
		result = append(result, Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, classifySQLiteError(op, err)
	}
	return result, nil
}

// sqliteArgs rewrites values the driver would store in a non-sortable form
func sqliteArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case time.Time:
			out[i] = v.UTC().Format(SQLiteTimeLayout)
		case *time.Time:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = v.UTC().Format(SQLiteTimeLayout)
			}
		case uuid.UUID:
			out[i] = v.String()
		default:
			out[i] = a
		}
	}
	return out
}

func classifySQLiteError(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s: %w", ErrConflict, op, err)
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s: %w", ErrConflict, op, err)
	}
	if strings.Contains(err.Error(), "no such column") || strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %s: %w", ErrInvalidQuery, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
