package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/pkg/parser"
)

func copyFixture(t *testing.T, dst string) {
	t.Helper()
	data, err := os.ReadFile("../../../internal/parser/testdata/garage/engine.bean.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dst, "engine.bean.yaml"), data, 0o644))
}

func TestGenerateAndDiff(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	copyFixture(t, in)
	opts := func() *parser.Options {
		return parser.Apply(parser.WithInDir(in), parser.WithOutDir(out))
	}

	first, err := Generate(context.Background(), opts(), "garage", "v1")
	require.NoError(t, err)
	require.FileExists(t, first)

	_, err = DiffCurrentWithPrevious(opts().Manifest)
	require.ErrorIs(t, err, ErrNoSnapshots)

	require.NoError(t, os.WriteFile(filepath.Join(in, "truck.bean.yaml"), []byte("beans:\n  - type: garage.Truck\n"), 0o644))
	_, err = Generate(context.Background(), opts(), "garage", "v2")
	require.NoError(t, err)

	m, err := List(opts().Manifest)
	require.NoError(t, err)
	require.Equal(t, "v2", m.CurrentVersion)
	require.Equal(t, "v1", m.PreviousVersion)
	s, ok := m.Snapshot("v2")
	require.True(t, ok)
	require.Contains(t, s.Units, "garage.$TruckDefinition")

	diff, err := DiffCurrentWithPrevious(opts().Manifest)
	require.NoError(t, err)
	require.Contains(t, diff, "garage.$TruckDefinition")
}

func TestDiffUnchanged(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	copyFixture(t, in)
	opts := parser.Apply(parser.WithInDir(in), parser.WithOutDir(out))

	for _, v := range []string{"v1", "v2"} {
		_, err := Generate(context.Background(), opts, "garage", v)
		require.NoError(t, err)
	}
	diff, err := DiffCurrentWithPrevious(opts.Manifest)
	require.NoError(t, err)
	require.Empty(t, diff)
}

func TestDiffUnknownVersion(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	copyFixture(t, in)
	opts := parser.Apply(parser.WithInDir(in), parser.WithOutDir(out))
	_, err := Generate(context.Background(), opts, "garage", "v1")
	require.NoError(t, err)

	m, err := List(opts.Manifest)
	require.NoError(t, err)
	_, err = Diff(m, "v0", "v1")
	require.ErrorContains(t, err, "v0")
}
