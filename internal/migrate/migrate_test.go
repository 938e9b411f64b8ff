package migrate

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/tursodatabase/go-libsql"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return n == 1
}

func TestLoadMigrations(t *testing.T) {
	all, err := LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations failed: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("expected at least one migration")
	}
	for i, m := range all {
		if m.Version != i+1 {
			t.Errorf("migration %d has version %d", i, m.Version)
		}
		if m.DownSQL == "" {
			t.Errorf("migration %d_%s has no down SQL", m.Version, m.Name)
		}
	}
}

func TestRunAll_CreatesSchemaAndIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := RunAll(ctx, db); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if err := RunAll(ctx, db); err != nil {
		t.Fatalf("second RunAll failed: %v", err)
	}

	for _, table := range []string{"events", "daily_stats", "schema_migrations"} {
		if !tableExists(t, db, table) {
			t.Errorf("expected table %s", table)
		}
	}

	version, dirty, err := GetCurrentVersion(ctx, db)
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if dirty {
		t.Error("expected clean state")
	}
	all, _ := LoadMigrations()
	if version != all[len(all)-1].Version {
		t.Errorf("expected version %d, got %d", all[len(all)-1].Version, version)
	}
}

func TestMigrator_DownAndUp(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	var out bytes.Buffer

	m, err := New(ctx, db, &out)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if err := m.To(ctx, 0); err != nil {
		t.Fatalf("To(0) failed: %v", err)
	}
	if tableExists(t, db, "events") {
		t.Error("expected events table to be dropped")
	}
	if v, err := m.Version(ctx); err != nil || v != 0 {
		t.Errorf("expected version 0, got %d (%v)", v, err)
	}

	if err := m.To(ctx, m.Latest()); err != nil {
		t.Fatalf("To(latest) failed: %v", err)
	}
	if !tableExists(t, db, "daily_stats") {
		t.Error("expected daily_stats table after migrating up")
	}
	if !strings.Contains(out.String(), "down 1_init") {
		t.Errorf("expected progress output, got %q", out.String())
	}
}

func TestMigrator_RejectsDirtyDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	m, err := New(ctx, db, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := SetVersion(ctx, db, 1, true); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := m.Up(ctx); err == nil {
		t.Error("expected dirty database to be rejected")
	}
}

func TestMigrator_UnknownTarget(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	m, err := New(ctx, db, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := m.To(ctx, m.Latest()+1); err == nil {
		t.Error("expected error for unknown target version")
	}
}

func TestSplitSQL(t *testing.T) {
	parts := SplitSQL("CREATE TABLE a (x INT);\nCREATE TABLE b (y INT);")
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if strings.TrimSpace(parts[2]) != "" {
		t.Errorf("expected trailing empty part, got %q", parts[2])
	}
}
