package postgres

import "testing"

func TestMigrationVersion(t *testing.T) {
	v, err := migrationVersion("0002_moderation.sql")
	if err != nil {
		t.Fatalf("parse version: %v", err)
	}
	if v != 2 {
		t.Fatalf("unexpected version: got %d want %d", v, 2)
	}

	if _, err := migrationVersion("moderation.sql"); err == nil {
		t.Fatalf("expected error for file without version prefix")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("unexpected embedded migration count: %d", len(entries))
	}
}
