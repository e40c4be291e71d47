package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, "beans", map[string][]byte{
		"cars.$CarDefinition":       []byte("BDU1\x00\x01"),
		"cars.$CarDefinition$exec1": []byte("BDU1"),
	})
	require.NoError(t, err)

	src := buf.String()
	require.True(t, strings.HasPrefix(src, "// Code generated by beandefgen. DO NOT EDIT.\n"))
	require.Contains(t, src, "package beans")
	require.Contains(t, src, `"github.com/cmmoran/beandefgen/pkg/unit"`)
	require.Contains(t, src, `var unitNames = []string{"cars.$CarDefinition", "cars.$CarDefinition$exec1"}`)
	require.Contains(t, src, `[]byte("BDU1\x00\x01")`)
	require.Contains(t, src, "func Units() ([]*unit.Unit, error)")
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gen")
	p, err := WriteDir(dir, "gen", map[string][]byte{"a.$ADefinition": []byte("x")})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FileName), p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Contains(t, string(data), "package gen")
}

func TestImportPath(ttt *testing.T) {
	root := ttt.TempDir()
	require.NoError(ttt, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/garage\n\ngo 1.24\n"), 0o644))
	require.NoError(ttt, os.MkdirAll(filepath.Join(root, "internal", "beans"), 0o755))

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{name: "module root", dir: root, want: "example.com/garage"},
		{name: "nested", dir: filepath.Join(root, "internal", "beans"), want: "example.com/garage/internal/beans"},
		{name: "not yet created", dir: filepath.Join(root, "gen"), want: "example.com/garage/gen"},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ImportPath(tt.dir)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
