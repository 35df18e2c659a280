package database

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/khabaroff/apikeys-dashboard/src/logging"
)

func TestNewSQLite_InMemorySchema(t *testing.T) {
	db := NewTestSQLite(t)

	var count int
	err := db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'api_keys'")
	if err != nil {
		t.Fatalf("Failed to query sqlite_master: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected api_keys table, found %d", count)
	}
}

func TestNewSQLite_FileIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")
	ctx := context.Background()

	db, err := NewSQLite(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	_, err = db.Exec(`INSERT INTO api_keys (id, name, key, type, created_at, is_active)
		VALUES ('a', 'Default', 'ssg_x', 'dev', '2026-01-01 00:00:00.000000000', 1)`)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	db.Close()

	// Schema statements are idempotent
	db, err = NewSQLite(ctx, path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM api_keys"); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after reopen, got %d", count)
	}
}

func TestSchemaSQL_UnknownDriver(t *testing.T) {
	if _, err := SchemaSQL("mysql"); err == nil {
		t.Error("Expected error for unknown driver")
	}
}

func TestWithTestDB_PostgresSchema(t *testing.T) {
	WithTestDB(t, func(tdb *TestDB) {
		var exists bool
		err := tdb.Pool.QueryRow(context.Background(),
			`SELECT EXISTS (SELECT 1 FROM information_schema.columns
			 WHERE table_name = 'api_keys' AND column_name = 'seq')`).Scan(&exists)
		if err != nil {
			t.Fatalf("Failed to inspect schema: %v", err)
		}
		if !exists {
			t.Error("Expected seq column on api_keys")
		}
	})
}

func TestNewSQLite_LogsSchemaInitialized(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: "info", Output: &buf})
	t.Cleanup(func() { logging.Setup(logging.Config{Level: "info"}) })

	path := filepath.Join(t.TempDir(), "keys.db")
	db, err := NewSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer db.Close()

	line := buf.String()
	if !strings.Contains(line, "SQLite schema initialized") {
		t.Errorf("Expected schema log line, got %q", line)
	}
	if !strings.Contains(line, `"component":"database"`) || !strings.Contains(line, path) {
		t.Errorf("Expected component and path fields, got %q", line)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %v", zerolog.GlobalLevel())
	}
}
