package turso_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/emiliopalmerini/timecode/internal/adapters/turso"
	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/migrate"
)

// testDB opens a file-backed database in a temp dir with all migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := turso.Open(turso.Options{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	ctx := context.Background()
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testRemoteDB starts a libsql-server container. It is slower and only runs
// when TIMECODE_INTEGRATION=1.
func testRemoteDB(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("TIMECODE_INTEGRATION") != "1" {
		t.Skip("set TIMECODE_INTEGRATION=1 to run against libsql-server")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "ghcr.io/tursodatabase/libsql-server:latest",
		ExposedPorts: []string{"8080/tcp"},
		WaitingFor:   wait.ForHTTP("/health").WithPort("8080/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start libsql-server container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "8080")
	if err != nil {
		t.Fatalf("Failed to get mapped port: %v", err)
	}

	db, err := turso.Open(turso.Options{URL: fmt.Sprintf("http://%s:%s", host, port.Port()), Ping: true})
	if err != nil {
		t.Fatalf("Failed to connect to libsql-server: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrate.RunAll(ctx, db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// newEvent builds a valid event starting at start (RFC 3339) lasting seconds.
func newEvent(t *testing.T, project, language, start string, seconds int64) domain.Event {
	t.Helper()

	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("bad start %q: %v", start, err)
	}
	origin := domain.Origin{MachineID: "machine-1", OS: "linux", Editor: "vscode"}
	c := domain.ActivityContext{ProjectName: project, Language: language}
	e, ok := domain.NewEvent(origin, c, s, s.Add(time.Duration(seconds)*time.Second), false)
	if !ok {
		t.Fatalf("event of %d seconds was dropped", seconds)
	}
	return e
}
