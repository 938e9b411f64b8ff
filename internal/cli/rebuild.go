package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
	"github.com/emiliopalmerini/timecode/internal/logger"
	"github.com/emiliopalmerini/timecode/internal/migrate"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute daily totals from the event ledger",
	Long: `Recompute every daily total from the stored events.

The events table is the source of truth; this replaces daily_stats with fresh
sums in a single transaction. Run it after changing TIMECODE_TIMEZONE.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := NewAppContext(cfg, logger.New("timecode-rebuild", cfg.LogLevel))
	if err != nil {
		return err
	}
	defer app.Close()

	if err := migrate.RunAll(ctx, app.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	result, err := app.Repos.Events.RebuildDailyStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild daily stats: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d daily totals from %d events (timezone %s)\n",
		result.Aggregates, result.Events, app.Location)
	return nil
}
