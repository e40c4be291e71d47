// Package snapshot records compiled listings in a manifest and diffs them.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cmmoran/beandefgen/pkg/action/compile"
	"github.com/cmmoran/beandefgen/pkg/manifest"
	"github.com/cmmoran/beandefgen/pkg/parser"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

var ErrNoSnapshots = errors.New("no current/previous snapshots recorded")

// Dir is where listing files are written, relative to the manifest.
const Dir = "snapshots"

// Generate compiles the current descriptions, writes the combined listing
// and records it in the manifest as snapshotVersion.
func Generate(ctx context.Context, opts *parser.Options, snapshotName, snapshotVersion string) (string, error) {
	opts.Normalize()
	m, err := manifest.Load(opts.Manifest)
	if err != nil {
		return "", err
	}

	res, err := compile.Generate(ctx, opts)
	if err != nil {
		return "", err
	}
	text, err := listing(res)
	if err != nil {
		return "", err
	}

	outFile := filepath.Join(filepath.Dir(opts.Manifest), Dir, snapshotName+"-"+snapshotVersion+".txt")
	if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(outFile, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	m.AddSnapshot(manifest.Snapshot{
		Name:     snapshotName,
		Version:  snapshotVersion,
		File:     outFile,
		Units:    res.Names(),
		Recorded: time.Now().UTC(),
	})
	if err := m.Save(opts.Manifest); err != nil {
		return "", err
	}
	return outFile, nil
}

func listing(res *compile.Result) (string, error) {
	var sb strings.Builder
	for i, name := range res.Names() {
		u, err := unit.Decode(res.Units[name])
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", name, err)
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(unit.Listing(u))
	}
	return sb.String(), nil
}

// List returns all snapshots recorded in the manifest.
func List(manifestPath string) (*manifest.Manifest, error) {
	return manifest.Load(manifestPath)
}

// DiffCurrentWithPrevious returns a diff of the previous listing against the
// current one. An empty string means nothing changed.
func DiffCurrentWithPrevious(manifestPath string) (string, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return "", err
	}
	if m.CurrentVersion == "" || m.PreviousVersion == "" {
		return "", ErrNoSnapshots
	}
	return Diff(m, m.PreviousVersion, m.CurrentVersion)
}

// Diff compares the listings recorded for two versions.
func Diff(m *manifest.Manifest, from, to string) (string, error) {
	prev, err := read(m, from)
	if err != nil {
		return "", err
	}
	cur, err := read(m, to)
	if err != nil {
		return "", err
	}
	return cmp.Diff(strings.Split(prev, "\n"), strings.Split(cur, "\n")), nil
}

func read(m *manifest.Manifest, version string) (string, error) {
	s, ok := m.Snapshot(version)
	if !ok {
		return "", fmt.Errorf("snapshot %s not found in manifest", version)
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", fmt.Errorf("read snapshot %s: %w", version, err)
	}
	return string(data), nil
}
