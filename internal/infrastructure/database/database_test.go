package database

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gardencore/internal/infrastructure/config"
)

func TestOpen(t *testing.T) {
	t.Run("creates nested directory and file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "data", "nested", "garden.db")

		db, err := Open(config.DatabaseConfig{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

		if _, err := db.ExecContext(context.Background(), "CREATE TABLE t (id INTEGER)"); err != nil {
			t.Fatalf("ExecContext() error = %v", err)
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("database file not created: %v", err)
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
		}
	})

	t.Run("single connection", func(t *testing.T) {
		db := openTestDB(t)
		if got := db.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("MaxOpenConnections = %d, want 1", got)
		}
	})
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose_Twice(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestInTx(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE tx_test (value TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE error = %v", err)
	}

	errBoom := errors.New("boom")
	tests := []struct {
		name    string
		value   string
		fail    bool
		wantErr error
		want    int
	}{
		{name: "commit", value: "kept", want: 1},
		{name: "rollback", value: "dropped", fail: true, wantErr: errBoom, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.InTx(ctx, func(tx *sql.Tx) error {
				if _, err := tx.ExecContext(ctx, "INSERT INTO tx_test (value) VALUES (?)", tt.value); err != nil {
					return err
				}
				if tt.fail {
					return errBoom
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("InTx() error = %v, want %v", err, tt.wantErr)
			}

			var count int
			if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tx_test WHERE value = ?", tt.value).Scan(&count); err != nil {
				t.Fatalf("SELECT error = %v", err)
			}
			if count != tt.want {
				t.Errorf("rows with %q = %d, want %d", tt.value, count, tt.want)
			}
		})
	}
}

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	return db
}
