package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddSnapshot(ttt *testing.T) {
	tests := []struct {
		name         string
		add          []Snapshot
		wantCurrent  string
		wantPrevious string
		wantLen      int
	}{
		{
			name:        "first",
			add:         []Snapshot{{Name: "beans", Version: "v1"}},
			wantCurrent: "v1",
			wantLen:     1,
		},
		{
			name:         "second",
			add:          []Snapshot{{Name: "beans", Version: "v1"}, {Name: "beans", Version: "v2"}},
			wantCurrent:  "v2",
			wantPrevious: "v1",
			wantLen:      2,
		},
		{
			name:         "re-record current",
			add:          []Snapshot{{Name: "beans", Version: "v1"}, {Name: "beans", Version: "v2"}, {Name: "beans", Version: "v2", File: "again"}},
			wantCurrent:  "v2",
			wantPrevious: "v1",
			wantLen:      2,
		},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := &Manifest{}
			for _, s := range tt.add {
				m.AddSnapshot(s)
			}
			require.Equal(t, tt.wantCurrent, m.CurrentVersion)
			require.Equal(t, tt.wantPrevious, m.PreviousVersion)
			require.Len(t, m.Snapshots, tt.wantLen)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.yaml")

	m, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, m.Snapshots)

	m.AddSnapshot(Snapshot{Name: "beans", Version: "v1", File: "v1.txt", Units: []string{"a.$ADefinition"}})
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	s, ok := loaded.Snapshot("v1")
	require.True(t, ok)
	require.Equal(t, []string{"a.$ADefinition"}, s.Units)
	_, ok = loaded.Snapshot("v9")
	require.False(t, ok)
}
