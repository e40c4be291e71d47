package sink

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, s Sink, name, data string) {
	t.Helper()
	w, err := s.Open(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestSinks(ttt *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{name: "dir", open: func(t *testing.T) Store {
			return NewDirSink(filepath.Join(t.TempDir(), "out"))
		}},
		{name: "memory", open: func(*testing.T) Store {
			return NewMemorySink()
		}},
		{name: "sqlite", open: func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "units.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		}},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := tt.open(t)
			write(t, s, "cars.$CarDefinition", "first")
			write(t, s, "cars.$CarDefinition$exec1", "exec")
			write(t, s, "cars.$CarDefinition", "second")

			data, err := s.Load("cars.$CarDefinition")
			require.NoError(t, err)
			require.Equal(t, "second", string(data))

			names, err := s.Names()
			require.NoError(t, err)
			require.Equal(t, []string{"cars.$CarDefinition", "cars.$CarDefinition$exec1"}, names)

			_, err = s.Load("cars.$Nothing")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestEntryCommitsOnClose(t *testing.T) {
	m := NewMemorySink()
	w, err := m.Open("a")
	require.NoError(t, err)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)

	_, err = m.Load("a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Close(), os.ErrClosed)
	_, err = w.Write([]byte("more"))
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestTee(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	write(t, Tee(a, b), "unit", "data")
	for _, s := range []*MemorySink{a, b} {
		data, err := s.Load("unit")
		require.NoError(t, err)
		require.Equal(t, "data", string(data))
	}
}
