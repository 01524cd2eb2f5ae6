package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMigrationsEmbeddedIsIdempotent(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	applied, err := RunMigrations(ctx, database, MigrationSource(""), quietLogger())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_init.sql" || applied[1] != "002_stats.sql" {
		t.Fatalf("unexpected applied migrations: %v", applied)
	}

	applied, err = RunMigrations(ctx, database, MigrationSource(""), quietLogger())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing applied on rerun, got %v", applied)
	}

	for _, table := range []string{"users", "timer_settings", "tasks", "sessions", "daily_stats", "weekly_stats"} {
		var name string
		if err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`,
			table,
		).Scan(&name); err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestRunMigrationsRollsBackBrokenFile(t *testing.T) {
	database, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer database.Close()

	source := fstest.MapFS{
		"001_ok.sql":     {Data: []byte(`CREATE TABLE a (id INTEGER PRIMARY KEY);`)},
		"002_broken.sql": {Data: []byte(`CREATE TABLE b (;`)},
		"notes.txt":      {Data: []byte(`ignored`)},
	}
	applied, err := RunMigrations(context.Background(), database, source, quietLogger())
	if err == nil {
		t.Fatal("expected broken migration to fail")
	}
	if len(applied) != 1 || applied[0] != "001_ok.sql" {
		t.Fatalf("unexpected applied migrations: %v", applied)
	}

	var count int
	if err := database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", count)
	}
}
