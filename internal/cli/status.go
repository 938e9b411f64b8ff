package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/timecode/internal/adapters/filestore"
	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
	"github.com/emiliopalmerini/timecode/internal/ports"
	"github.com/emiliopalmerini/timecode/internal/util"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local agent queue",
	Long: `Show how many events are waiting for delivery and today's recorded time,
read from the agent state directory. Works while the agent is running.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusJSON bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print machine-readable output")
}

type queueSummary struct {
	StateDir     string `json:"stateDir"`
	Pending      int    `json:"pending"`
	PendingSecs  int64  `json:"pendingSeconds"`
	Today        string `json:"today"`
	TodaySeconds int64  `json:"todaySeconds"`
	Oldest       string `json:"oldestPending,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAgent()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := filestore.New(cfg.StateDir)
	state, err := store.LoadQueue()
	if err != nil {
		if errors.Is(err, ports.ErrCorruptState) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Queue file was unreadable and has been set aside.")
			state = &ports.QueueState{}
		} else {
			return fmt.Errorf("failed to read queue: %w", err)
		}
	}

	summary := summarizeQueue(state, time.Now())
	summary.StateDir = store.Dir()

	if statusJSON {
		return writeJSON(cmd.OutOrStdout(), summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State dir:  %s\n", summary.StateDir)
	fmt.Fprintf(out, "Today:      %s (%s)\n", util.FormatDuration(summary.TodaySeconds), util.FormatDayHuman(summary.Today))
	fmt.Fprintf(out, "Pending:    %d events, %s\n", summary.Pending, util.FormatDuration(summary.PendingSecs))
	if summary.Oldest != "" {
		fmt.Fprintf(out, "Oldest:     %s\n", summary.Oldest)
	}
	return nil
}

func summarizeQueue(state *ports.QueueState, now time.Time) queueSummary {
	today := now.Format(domain.DayLayout)
	s := queueSummary{
		Pending: len(state.Pending),
		Today:   today,
	}
	if state.TodayDay == today {
		s.TodaySeconds = state.TodaySeconds
	}
	for _, e := range state.Pending {
		s.PendingSecs += e.DurationSeconds
	}
	if len(state.Pending) > 0 {
		s.Oldest = state.Pending[0].StartedAt
	}
	return s
}
