package cmd

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtures = "../internal/parser/testdata/garage"

func TestParseLevel(ttt *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    slog.Level
		wantErr bool
	}{
		{name: "trace", in: "TRACE", want: LevelTrace},
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "offset", in: "debug+1", want: slog.LevelDebug + 1},
		{name: "warn", in: "warn", want: slog.LevelWarn},
		{name: "invalid", in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LevelTrace).Log(t.Context(), LevelTrace, "emitted")
	require.Contains(t, buf.String(), `"level":"TRACE"`)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

// Commands share the global viper instance, so they run in sequence. The
// directory sink keeps units from earlier runs.
func TestCommands(t *testing.T) {
	out := t.TempDir()

	got := run(t, "compile", "-i", fixtures, "-o", out, "--snapshot", "v1")
	require.Contains(t, got, "snapshot beans v1 recorded")

	got = run(t, "compile", "-i", fixtures, "-o", out, "--snapshot", "v2", "-d")
	require.Contains(t, got, "snapshot beans v2 recorded")

	got = run(t, "inspect", "-o", out)
	require.Contains(t, got, "4 definitions, 5 units")

	got = run(t, "inspect", "-o", out, "garage.$EngineDefinition")
	require.Contains(t, got, "definition garage.$EngineDefinition")

	got = run(t, "diff", "-o", out)
	require.Contains(t, got, "garage.$OldEngineDefinition")

	got = run(t, "diff", "-o", out, "--from", "v2", "--to", "v2")
	require.Contains(t, got, "no changes")

	require.FileExists(t, filepath.Join(out, "manifest.yaml"))
}
