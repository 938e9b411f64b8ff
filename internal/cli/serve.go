package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/timecode/internal/adapters/otel"
	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
	"github.com/emiliopalmerini/timecode/internal/ingest"
	"github.com/emiliopalmerini/timecode/internal/logger"
	"github.com/emiliopalmerini/timecode/internal/migrate"
	"github.com/emiliopalmerini/timecode/internal/ports"
	"github.com/emiliopalmerini/timecode/internal/stats"
	"github.com/emiliopalmerini/timecode/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ingestion and stats API",
	Long: `Start the HTTP API that accepts events from tracking agents and serves
daily aggregates to the dashboard. Pending migrations run on startup.

Examples:
  timecode serve                 # Listen on 127.0.0.1:4821
  timecode serve --port 9000     # Listen on 127.0.0.1:9000
  timecode serve --host 0.0.0.0  # Listen on all interfaces`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind (overrides TIMECODE_HOST)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides TIMECODE_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	log := logger.New("timecode-server", cfg.LogLevel)

	app, err := NewAppContext(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := migrate.RunAll(ctx, app.DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	exporter := newMetricsExporter(ctx, cfg.Config, log)

	ing := ingest.NewService(app.Repos.Events, exporter, cfg.MaxBatch, log)
	st := stats.NewService(app.Repos.Stats, cfg.MaxRangeDays, app.Location)
	server := web.NewServer(cfg.Addr(), app.DB, ing, st, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := exporter.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush metrics exporter")
		}
		return nil
	})

	log.Info().
		Str("addr", cfg.Addr()).
		Str("timezone", app.Location.String()).
		Bool("remote_db", cfg.Database.URL != "").
		Msg("timecode server ready")

	return g.Wait()
}

// newMetricsExporter falls back to a no-op exporter when OTLP is disabled or
// unreachable at startup.
func newMetricsExporter(ctx context.Context, cfg otel.Config, log zerolog.Logger) ports.MetricsExporter {
	if !cfg.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, cfg, web.Version)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.Endpoint).Msg("OTEL exporter unavailable, metrics disabled")
		return otel.NewNoOpExporter()
	}
	log.Info().Str("endpoint", cfg.Endpoint).Msg("Exporting ingestion metrics over OTLP")
	return exp
}
