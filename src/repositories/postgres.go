package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes we classify explicitly
const (
	pgUniqueViolation = "23505"
	pgUndefinedColumn = "42703"
	pgUndefinedTable  = "42P01"
)

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Select implements Store
func (s *PostgresStore) Select(ctx context.Context, table string, columns []string, filter Filter, order ...OrderBy) ([]Row, error) {
	query, args, err := postgresDialect.buildSelect(table, columns, filter, order)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError("select", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPgError("select", err)
	}

	result := make([]Row, len(maps))
	for i, m := range maps {
		result[i] = Row(m)
	}
	return result, nil
}

// Insert implements Store. id and created_at are filled by column defaults.
func (s *PostgresStore) Insert(ctx context.Context, table string, row Row) (Row, error) {
	query, args, err := postgresDialect.buildInsert(table, row)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError("insert", err)
	}

	inserted, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPgError("insert", err)
	}
	return Row(inserted), nil
}

// Update implements Store
func (s *PostgresStore) Update(ctx context.Context, table string, patch Row, filter Filter) (int64, error) {
	query, args, err := postgresDialect.buildUpdate(table, patch, filter)
	if err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, classifyPgError("update", err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classifyPgError("ping", err)
	}
	return nil
}

func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s: %s", ErrConflict, op, pgErr.ConstraintName)
		case pgUndefinedColumn, pgUndefinedTable:
			return fmt.Errorf("%w: %s: %w", ErrInvalidQuery, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
