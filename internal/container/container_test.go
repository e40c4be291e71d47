package container

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/internal/vm"
	"github.com/cmmoran/beandefgen/internal/writer"
	"github.com/cmmoran/beandefgen/pkg/model"
)

var (
	engineType = model.T("garage", "Engine")
	carType    = model.T("garage", "Car")
)

type engine struct {
	Car *car
}

type car struct {
	Engine  *engine
	Label   string
	Stopped bool
}

func (c *car) Validate() error {
	if c.Label == "invalid" {
		return errors.New("label rejected")
	}
	return nil
}

func registry() []*vm.Class {
	return []*vm.Class{
		vm.NewClass(engineType).
			Constructor(nil, func([]any) (any, error) { return &engine{}, nil }).
			Field("car", carType, vm.Get(func(e *engine) *car { return e.Car }), vm.Set(func(e *engine, c *car) { e.Car = c })),
		vm.NewClass(carType).
			Constructor(nil, func([]any) (any, error) { return &car{}, nil }).
			Field("engine", engineType, vm.Get(func(c *car) *engine { return c.Engine }), vm.Set(func(c *car, e *engine) { c.Engine = e })).
			Field("label", model.String, vm.Get(func(c *car) string { return c.Label }), vm.Set(func(c *car, s string) { c.Label = s })).
			Method("Stop", nil, func(recv any, _ []any) (any, error) {
				recv.(*car).Stopped = true
				return nil, nil
			}),
	}
}

// load compiles each writer step list and defines the results.
func load(t *testing.T, writers ...*writer.Writer) *vm.Loader {
	t.Helper()
	l := vm.NewLoader()
	l.Register(registry()...)
	for _, w := range writers {
		require.NoError(t, w.Finalize())
		require.NoError(t, l.Add(w.Units()...))
	}
	return l
}

func carWriter(t *testing.T) *writer.Writer {
	t.Helper()
	w := writer.New(carType, nil)
	require.NoError(t, w.DeclareConstructor(nil, false, nil))
	require.NoError(t, w.VisitFieldInjection(writer.FieldPoint{Name: "engine", Type: engineType}))
	require.NoError(t, w.VisitFieldInjection(writer.FieldPoint{
		Name: "label", Type: model.String, Value: true, Optional: true,
		Metadata: model.AnnotationMetadata{}.Annotate(model.AnnotationValue, model.MemberValue, "${car.label:none}"),
	}))
	require.NoError(t, w.VisitPreDestroy(writer.MethodPoint{Name: "Stop"}))
	return w
}

func TestResolveDefinition(t *testing.T) {
	e := &engine{}
	c := New()
	c.Properties().Set("car.label", "sedan")
	require.NoError(t, c.Register(engineType, nil, e))

	defs, err := c.LoadDefinitions(load(t, carWriter(t)))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	v, err := c.GetBean(vm.NewResolutionContext(carType), carType, nil)
	require.NoError(t, err)
	got := v.(*car)
	require.Same(t, e, got.Engine)
	require.Equal(t, "sedan", got.Label)

	again, err := c.GetBean(vm.NewResolutionContext(carType), carType, nil)
	require.NoError(t, err)
	require.Same(t, got, again)

	require.NoError(t, c.Close())
	require.True(t, got.Stopped)
}

func TestMissingDependency(t *testing.T) {
	c := New()
	_, err := c.LoadDefinitions(load(t, carWriter(t)))
	require.NoError(t, err)

	_, err = c.GetBean(vm.NewResolutionContext(carType), carType, nil)
	require.ErrorIs(t, err, vm.ErrNoSuchBean)
	require.ErrorContains(t, err, "garage.Car -> field engine")
}

func TestCircularDependency(t *testing.T) {
	cw := writer.New(carType, nil)
	require.NoError(t, cw.DeclareConstructor(nil, false, nil))
	require.NoError(t, cw.VisitFieldInjection(writer.FieldPoint{Name: "engine", Type: engineType}))
	ew := writer.New(engineType, nil)
	require.NoError(t, ew.DeclareConstructor(nil, false, nil))
	require.NoError(t, ew.VisitFieldInjection(writer.FieldPoint{Name: "car", Type: carType}))

	c := New()
	_, err := c.LoadDefinitions(load(t, cw, ew))
	require.NoError(t, err)

	_, err = c.GetBean(vm.NewResolutionContext(carType), carType, nil)
	require.ErrorIs(t, err, ErrCircular)
}

func TestOptionalBean(ttt *testing.T) {
	optionalCar := func(t *testing.T) *writer.Writer {
		w := writer.New(carType, nil)
		require.NoError(t, w.DeclareConstructor(nil, false, nil))
		require.NoError(t, w.VisitFieldInjection(writer.FieldPoint{Name: "engine", Type: engineType, Optional: true}))
		return w
	}
	brokenEngine := func(t *testing.T) *writer.Writer {
		w := writer.New(engineType, nil)
		require.NoError(t, w.DeclareConstructor(nil, false, nil))
		require.NoError(t, w.VisitFieldInjection(writer.FieldPoint{Name: "car", Type: carType}))
		return w
	}
	tests := []struct {
		name    string
		writers func(t *testing.T) []*writer.Writer
		wantErr error
	}{
		{
			name:    "absent is skipped",
			writers: func(t *testing.T) []*writer.Writer { return []*writer.Writer{optionalCar(t)} },
		},
		{
			name:    "failing construction is raised",
			writers: func(t *testing.T) []*writer.Writer { return []*writer.Writer{optionalCar(t), brokenEngine(t)} },
			wantErr: ErrCircular,
		},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New()
			_, err := c.LoadDefinitions(load(t, tt.writers(t)...))
			require.NoError(t, err)

			v, err := c.GetBean(vm.NewResolutionContext(carType), carType, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Nil(t, v.(*car).Engine)
		})
	}
}

func TestValidatedBean(ttt *testing.T) {
	tests := []struct {
		name      string
		validated bool
		label     string
		wantErr   error
	}{
		{name: "valid", validated: true, label: "sedan"},
		{name: "invalid", validated: true, label: "invalid", wantErr: ErrInvalidBean},
		{name: "not validated", label: "invalid"},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := carWriter(t)
			require.NoError(t, w.SetValidated(tt.validated))
			c := New()
			c.Properties().Set("car.label", tt.label)
			require.NoError(t, c.Register(engineType, nil, &engine{}))
			_, err := c.LoadDefinitions(load(t, w))
			require.NoError(t, err)

			v, err := c.GetBean(vm.NewResolutionContext(carType), carType, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorContains(t, err, "label rejected")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.label, v.(*car).Label)
		})
	}
}

func TestDuplicateRegistration(t *testing.T) {
	c := New()
	require.NoError(t, c.Register(engineType, nil, &engine{}))
	require.ErrorIs(t, c.Register(engineType, nil, &engine{}), ErrDuplicateBean)

	q := model.T("garage", "Spare")
	require.NoError(t, c.Register(engineType, &q, &engine{}))
	require.Equal(t, "garage.Engine#garage.Spare", BeanName(engineType, &q))
}

func TestGetProperty(ttt *testing.T) {
	c := New()
	p := c.Properties()
	p.Set("pool.size", "12")
	p.Set("pool.fair", "true")
	p.Set("pool.timeout", "1500ms")
	p.Set("pool.ratio", 0.5)
	p.Set("pool.name", "primary")
	p.Set("pool.hosts", []string{"a", "b"})

	tests := []struct {
		name string
		key  string
		typ  model.TypeRef
		want any
	}{
		{name: "int", key: "pool.size", typ: model.Int, want: 12},
		{name: "int64", key: "pool.size", typ: model.Int64, want: int64(12)},
		{name: "bool", key: "pool.fair", typ: model.Bool, want: true},
		{name: "duration", key: "pool.timeout", typ: model.Duration, want: 1500 * time.Millisecond},
		{name: "float", key: "pool.ratio", typ: model.Float64, want: 0.5},
		{name: "string", key: "pool.name", typ: model.String, want: "primary"},
		{name: "strings", key: "pool.hosts", typ: model.StringArray, want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			v, ok, err := c.GetProperty(nil, tt.key, tt.typ)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tt.want, v)
		})
	}

	_, ok, err := c.GetProperty(nil, "pool.missing", model.Int)
	require.NoError(ttt, err)
	require.False(ttt, ok)
	require.True(ttt, c.ContainsProperties(nil, "pool"))
	require.False(ttt, c.ContainsProperties(nil, "cache"))
	require.True(ttt, c.ContainsProperty(nil, "pool.size"))
}
