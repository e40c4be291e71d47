package inspect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/internal/sink"
	"github.com/cmmoran/beandefgen/pkg/action/compile"
	"github.com/cmmoran/beandefgen/pkg/parser"
)

func compiled(t *testing.T) *sink.DirSink {
	t.Helper()
	dir := t.TempDir()
	_, err := compile.Generate(context.Background(), parser.Apply(
		parser.WithInDir("../../../internal/parser/testdata/garage"),
		parser.WithOutDir(dir),
	))
	require.NoError(t, err)
	return sink.NewDirSink(dir)
}

func TestInspect(t *testing.T) {
	s, err := Inspect(compiled(t))
	require.NoError(t, err)
	require.Equal(t, 5, s.Units)
	require.Len(t, s.Definitions, 4)

	byName := map[string]Definition{}
	for _, d := range s.Definitions {
		byName[d.Name] = d
	}

	car := byName["garage.$CarDefinition"]
	require.Equal(t, "garage.Car", car.BeanType)
	require.Equal(t, []string{"garage.Engine engine"}, car.Constructor)
	require.Len(t, car.Fields, 2)
	require.Len(t, car.Methods, 4)
	require.Equal(t, []string{"Start()"}, car.PostConstruct)
	require.Equal(t, []string{"Stop()"}, car.PreDestroy)
	require.Equal(t, []string{"Describe"}, car.Executables)

	wheel := byName["garage.$WheelDefinition"]
	require.Equal(t, "garage.WheelFactory.NewWheel", wheel.Factory)

	text := s.String()
	require.Contains(t, text, "4 definitions, 5 units")
	require.Contains(t, text, "garage.$CarDefinition (garage.Car): 2 fields, 4 methods, 1 executable")
	require.Contains(t, text, "0 fields")
}

func TestListing(ttt *testing.T) {
	src := compiled(ttt)
	tests := []struct {
		name    string
		unit    string
		want    string
		wantErr error
	}{
		{name: "definition", unit: "garage.$EngineDefinition", want: "definition garage.$EngineDefinition"},
		{name: "executable", unit: "garage.$CarDefinition$exec1", want: "executable-method garage.$CarDefinition$exec1"},
		{name: "missing", unit: "garage.$Nothing", wantErr: sink.ErrNotFound},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			text, err := Listing(src, tt.unit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Contains(t, text, tt.want)
		})
	}
}

func TestListings(t *testing.T) {
	text, err := Listings(compiled(t))
	require.NoError(t, err)
	require.Contains(t, text, "definition garage.$WheelDefinition")
	require.Contains(t, text, "definition garage.$CarDefinition")
}

func TestLoadRejectsGarbage(t *testing.T) {
	m := sink.NewMemorySink()
	w, err := m.Open("broken")
	require.NoError(t, err)
	_, err = w.Write([]byte("not a unit"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Load(m)
	require.ErrorContains(t, err, "load broken")
}
