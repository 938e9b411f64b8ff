package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/timecode/internal/adapters/filestore"
	"github.com/emiliopalmerini/timecode/internal/adapters/httpclient"
	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
	"github.com/emiliopalmerini/timecode/internal/logger"
	"github.com/emiliopalmerini/timecode/internal/outbox"
	"github.com/emiliopalmerini/timecode/internal/tracker"
)

// maxSignalLine bounds a single JSON line read from the editor.
const maxSignalLine = 1 << 20

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the tracking agent for an editor session",
	Long: `Run the tracking agent. The editor integration writes one JSON signal per
line to stdin (context-changed, edit, save, focus-changed, config, flush,
restart-connection, status, shutdown). Status replies are written to stdout
as JSON lines; logs go to stderr.

Finished segments are queued under TIMECODE_STATE_DIR and delivered to
TIMECODE_API_BASE_URL in batches.`,
	Args: cobra.NoArgs,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAgent()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), "timecode-agent", cfg.LogLevel)

	store := filestore.New(cfg.StateDir)
	machineID, err := store.MachineID()
	if err != nil {
		return fmt.Errorf("failed to load machine id: %w", err)
	}

	settings := cfg.Settings()
	client := httpclient.New(settings.APIBaseURL)

	queue := outbox.New(outbox.Config{
		BatchSize: cfg.BatchSize,
		Logger:    log,
	}, client, store)
	if err := queue.Restore(); err != nil {
		return fmt.Errorf("failed to restore queue: %w", err)
	}

	agent := tracker.NewAgent(tracker.AgentConfig{
		Origin: domain.Origin{
			MachineID: machineID,
			OS:        runtime.GOOS,
			Editor:    cfg.Editor,
		},
		Settings:      settings,
		FlushInterval: cfg.FlushInterval(),
		Logger:        log,
		Out:           cmd.OutOrStdout(),
	}, queue, client)

	sigCtx, stop := signalContext(cmd.Context())
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	// The reader blocks on stdin and is not waited for; the agent stops on
	// EOF or cancellation.
	signals := make(chan any)
	go readSignals(ctx, cmd.InOrStdin(), signals, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return agent.Run(gctx, signals)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, log)
		})
	}

	return g.Wait()
}

// readSignals decodes one signal per line from r and sends it on out. Lines
// that fail to parse are logged and skipped. out is closed at EOF.
func readSignals(ctx context.Context, r io.Reader, out chan<- any, log zerolog.Logger) {
	defer close(out)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSignalLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		sig, err := domain.ParseSignal(line)
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring malformed signal")
			continue
		}
		select {
		case out <- sig:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("Failed to read signals")
	}
}

func serveMetrics(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Serving agent metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			// Metrics are optional; a bind failure must not stop tracking.
			log.Warn().Err(err).Msg("Metrics server failed")
		}
		<-ctx.Done()
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

