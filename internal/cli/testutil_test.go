package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolateEnv points every config lookup at a temp dir and returns it.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("TIMECODE_DB_PATH", filepath.Join(dir, "timecode.db"))
	t.Setenv("TIMECODE_DATABASE_URL", "")
	t.Setenv("TIMECODE_STATE_DIR", filepath.Join(dir, "agent"))
	t.Setenv("TIMECODE_TIMEZONE", "UTC")
	t.Setenv("TIMECODE_LOG_LEVEL", "error")
	return dir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := execute(t, stdin, args...)
	require.NoError(t, err)
	return out
}
