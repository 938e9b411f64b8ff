package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/timecode/migrations"
)

// Migration represents a single database migration with up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Migrator applies the embedded migrations to a database, reporting progress to out.
type Migrator struct {
	db         *sql.DB
	out        io.Writer
	migrations []Migration
}

// New loads the embedded migrations and prepares the schema_migrations table.
func New(ctx context.Context, db *sql.DB, out io.Writer) (*Migrator, error) {
	if out == nil {
		out = io.Discard
	}
	if err := EnsureMigrationsTable(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	all, err := LoadMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return &Migrator{db: db, out: out, migrations: all}, nil
}

// Latest returns the highest embedded migration version.
func (m *Migrator) Latest() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

// Version returns the applied version, refusing to continue from a dirty state.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	version, dirty, err := GetCurrentVersion(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("database is in dirty state at version %d, manual intervention required", version)
	}
	return version, nil
}

// Up runs all pending up migrations.
func (m *Migrator) Up(ctx context.Context) error {
	current, err := m.Version(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.run(ctx, mig, true); err != nil {
			return err
		}
		count++
	}

	if count == 0 {
		fmt.Fprintln(m.out, "No migrations to run")
	} else {
		fmt.Fprintf(m.out, "Migrated to version %d (%d migrations applied)\n", m.Latest(), count)
	}
	return nil
}

// To migrates up or down until target is the applied version.
func (m *Migrator) To(ctx context.Context, target int) error {
	current, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if target < 0 || target > m.Latest() {
		return fmt.Errorf("unknown migration version %d (latest is %d)", target, m.Latest())
	}

	switch {
	case target > current:
		fmt.Fprintf(m.out, "Migrating up to version %d...\n", target)
		for _, mig := range m.migrations {
			if mig.Version <= current {
				continue
			}
			if mig.Version > target {
				break
			}
			if err := m.run(ctx, mig, true); err != nil {
				return err
			}
		}
	case target < current:
		fmt.Fprintf(m.out, "Migrating down to version %d...\n", target)
		for i := len(m.migrations) - 1; i >= 0; i-- {
			mig := m.migrations[i]
			if mig.Version > current {
				continue
			}
			if mig.Version <= target {
				break
			}
			if mig.DownSQL == "" {
				return fmt.Errorf("no down migration for version %d", mig.Version)
			}
			if err := m.run(ctx, mig, false); err != nil {
				return err
			}
		}
	default:
		fmt.Fprintln(m.out, "Already at target version")
		return nil
	}

	fmt.Fprintf(m.out, "Migrated to version %d\n", target)
	return nil
}

func (m *Migrator) run(ctx context.Context, mig Migration, up bool) error {
	direction := "up"
	sqlContent := mig.UpSQL
	targetVersion := mig.Version
	if !up {
		direction = "down"
		sqlContent = mig.DownSQL
		targetVersion = mig.Version - 1
	}

	fmt.Fprintf(m.out, "  %s %d_%s...\n", direction, mig.Version, mig.Name)

	if err := SetVersion(ctx, m.db, mig.Version, true); err != nil {
		return fmt.Errorf("failed to set dirty flag: %w", err)
	}

	for _, stmt := range SplitSQL(sqlContent) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d %s: %w\nSQL: %s", mig.Version, direction, err, stmt)
		}
	}

	if err := SetVersion(ctx, m.db, targetVersion, false); err != nil {
		return fmt.Errorf("failed to clear dirty flag: %w", err)
	}
	return nil
}

// EnsureMigrationsTable creates the schema_migrations table if it doesn't exist.
func EnsureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// GetCurrentVersion returns the current migration version and dirty state.
func GetCurrentVersion(ctx context.Context, db *sql.DB) (int, bool, error) {
	var version int
	var dirty int

	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return version, dirty == 1, nil
}

// SetVersion sets the migration version and dirty state.
func SetVersion(ctx context.Context, db *sql.DB, version int, dirty bool) error {
	dirtyInt := 0
	if dirty {
		dirtyInt = 1
	}

	_, err := db.ExecContext(ctx, `DELETE FROM schema_migrations`)
	if err != nil {
		return err
	}

	if version > 0 {
		_, err = db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, dirtyInt)
	}
	return err
}

// LoadMigrations reads all embedded migration files and returns them sorted by version.
func LoadMigrations() ([]Migration, error) {
	var result []Migration

	upPattern := regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

	err := fs.WalkDir(migrations.FS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := upPattern.FindStringSubmatch(filepath.Base(path))
		if matches == nil {
			return nil
		}

		version, _ := strconv.Atoi(matches[1])
		name := matches[2]

		upSQL, err := fs.ReadFile(migrations.FS, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		downPath := fmt.Sprintf("%03d_%s.down.sql", version, name)
		downSQL, err := fs.ReadFile(migrations.FS, downPath)
		if err != nil {
			downSQL = nil
		}

		result = append(result, Migration{
			Version: version,
			Name:    name,
			UpSQL:   string(upSQL),
			DownSQL: string(downSQL),
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})

	return result, nil
}

// SplitSQL splits a SQL string by semicolons.
func SplitSQL(sql string) []string {
	return strings.Split(sql, ";")
}

// RunAll runs all pending migrations on the provided database without output.
func RunAll(ctx context.Context, db *sql.DB) error {
	m, err := New(ctx, db, io.Discard)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}
