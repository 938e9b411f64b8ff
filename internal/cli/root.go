package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timecode",
	Short: "Self-hosted coding time tracker",
	Long: `timecode records how long you spend coding, per project and language.

The editor integration runs "timecode track", which turns editor activity into
time segments and delivers them to a "timecode serve" instance. The server
stores every segment once and keeps daily totals for the dashboard.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rebuildCmd)
}
