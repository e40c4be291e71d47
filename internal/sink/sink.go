// Package sink stores encoded units by name. Every sink commits an entry
// when its writer is closed.
package sink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Ext is the file extension of a unit written by DirSink.
const Ext = ".bdu"

var ErrNotFound = errors.New("unit not found")

// Sink is satisfied by writer.Sink.
type Sink interface {
	Open(name string) (io.WriteCloser, error)
}

// Source reads units back.
type Source interface {
	Load(name string) ([]byte, error)
	Names() ([]string, error)
}

// Store is a sink that can be read back and released.
type Store interface {
	Sink
	Source
	io.Closer
}

// Open returns the store a compile run targets: the sqlite database when
// database is set, else the directory.
func Open(dir, database string) (Store, error) {
	if database != "" {
		return OpenSQLite(database)
	}
	return NewDirSink(dir), nil
}

// DirSink writes one file per unit under Dir.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) *DirSink { return &DirSink{Dir: dir} }

func (d *DirSink) path(name string) string {
	return filepath.Join(d.Dir, name+Ext)
}

func (d *DirSink) Open(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", d.Dir, err)
	}
	return os.Create(d.path(name))
}

func (d *DirSink) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(d.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, err
}

func (d *DirSink) Close() error { return nil }

func (d *DirSink) Names() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Ext) {
			out = append(out, strings.TrimSuffix(e.Name(), Ext))
		}
	}
	sort.Strings(out)
	return out, nil
}

// MemorySink keeps units in memory. Safe for concurrent use.
type MemorySink struct {
	mu    sync.Mutex
	units map[string][]byte
}

func NewMemorySink() *MemorySink { return &MemorySink{units: map[string][]byte{}} }

func (m *MemorySink) Open(name string) (io.WriteCloser, error) {
	return &entry{commit: func(data []byte) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.units[name] = data
		return nil
	}}, nil
}

func (m *MemorySink) Load(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return data, nil
}

func (m *MemorySink) Close() error { return nil }

func (m *MemorySink) Names() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.units))
	for name := range m.units {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// entry buffers writes and hands them to commit once on Close.
type entry struct {
	buf    bytes.Buffer
	commit func([]byte) error
	closed bool
}

func (e *entry) Write(p []byte) (int, error) {
	if e.closed {
		return 0, os.ErrClosed
	}
	return e.buf.Write(p)
}

func (e *entry) Close() error {
	if e.closed {
		return os.ErrClosed
	}
	e.closed = true
	return e.commit(bytes.Clone(e.buf.Bytes()))
}

// Tee writes every unit to all sinks. Close reports the first failure but
// closes every entry.
func Tee(sinks ...Sink) Sink { return tee(sinks) }

type tee []Sink

func (t tee) Open(name string) (io.WriteCloser, error) {
	ws := make(multiEntry, 0, len(t))
	for _, s := range t {
		w, err := s.Open(name)
		if err != nil {
			_ = ws.Close()
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, nil
}

type multiEntry []io.WriteCloser

func (m multiEntry) Write(p []byte) (int, error) {
	for _, w := range m {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (m multiEntry) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
