package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
	"github.com/emiliopalmerini/timecode/internal/logger"
	"github.com/emiliopalmerini/timecode/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  timecode migrate      # Run all pending migrations
  timecode migrate 1    # Migrate to version 1
  timecode migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := NewAppContext(cfg, logger.New("timecode-migrate", cfg.LogLevel))
	if err != nil {
		return err
	}
	defer app.Close()

	m, err := migrate.New(ctx, app.DB, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	current, err := m.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Current version: %d\n", current)

	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Running all pending migrations...")
		return m.Up(ctx)
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version number: %s", args[0])
	}
	return m.To(ctx, target)
}
