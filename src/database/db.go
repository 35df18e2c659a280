package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/khabaroff/apikeys-dashboard/src/logging"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Database holds the PostgreSQL connection pool
type Database struct {
	pool *pgxpool.Pool
}

// New creates a new database connection and applies the schema
func New(ctx context.Context, databaseURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Configure connection pool
	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &Database{pool: pool}

	if err := db.initializeSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool
func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetPool returns the connection pool
func (db *Database) GetPool() *pgxpool.Pool {
	return db.pool
}

func (db *Database) initializeSchema(ctx context.Context) error {
	logger := logging.NewLogger("database")

	schema, err := SchemaSQL("postgres")
	if err != nil {
		return err
	}

	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := db.runMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Msg("Database schema initialized successfully")
	return nil
}

// postgresMigrations bring tables created by the hosted dashboard up to date.
// Each statement must be idempotent.
var postgresMigrations = []struct {
	name string
	sql  string
}{
	{"add last_used_at", `ALTER TABLE api_keys ADD COLUMN IF NOT EXISTS last_used_at TIMESTAMPTZ`},
	{"add seq", `ALTER TABLE api_keys ADD COLUMN IF NOT EXISTS seq BIGSERIAL`},
	{"created_at index", `CREATE INDEX IF NOT EXISTS idx_api_keys_created_at ON api_keys (created_at DESC, seq DESC)`},
	{"active index", `CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys (is_active) WHERE is_active = true`},
}

func (db *Database) runMigrations(ctx context.Context) error {
	logger := logging.NewLogger("database")

	for _, m := range postgresMigrations {
		if _, err := db.pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %q: %w", m.name, err)
		}
		logger.Debug().Str("migration", m.name).Msg("Migration applied")
	}

	logger.Info().Int("count", len(postgresMigrations)).Msg("Migrations completed successfully")
	return nil
}

// NewSQLite opens a SQLite database at path and applies the schema.
// An empty path opens a private in-memory database.
func NewSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite doesn't support concurrent writes, and every :memory: connection
	// is its own database
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	schema, err := SchemaSQL("sqlite")
	if err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	logger := logging.NewLogger("database")
	logger.Info().Str("path", path).Msg("SQLite schema initialized")
	return db, nil
}

// SchemaSQL returns the embedded schema for driver ("postgres" or "sqlite")
func SchemaSQL(driver string) (string, error) {
	content, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return "", fmt.Errorf("no schema for driver %q: %w", driver, err)
	}
	return string(content), nil
}
