package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

func TestPostgresDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "app", Password: "p@ss", Name: "taskboard"}
	want := "postgres://app:p%40ss@db:5432/taskboard?sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Fatalf("dsn: want=%s got=%s", want, got)
	}
	cfg.DSN = "postgres://override"
	if got := cfg.PostgresDSN(); got != "postgres://override" {
		t.Fatalf("explicit dsn should win, got %s", got)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	svc, err := Open(Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "tb.db")}, logger.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"projects", "tasks", "users"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	// idempotent
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "oracle"}, logger.Nop()); err == nil {
		t.Fatalf("expected error")
	}
}
