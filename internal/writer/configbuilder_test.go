package writer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

var poolBuilder = model.T("pool", "Builder")

// builderInject compiles one builder with the given methods and returns the
// inject body after its five preamble instructions.
func builderInject(t *testing.T, cb ConfigBuilder, methods ...ConfigBuilderMethod) *asm.Body {
	t.Helper()
	w := declared(t)
	require.NoError(t, w.BeginConfigBuilder(cb))
	require.Equal(t, PhaseConfigBuilder, w.Phase())
	for _, m := range methods {
		require.NoError(t, w.VisitConfigBuilderMethod(m))
	}
	require.NoError(t, w.EndConfigBuilder())
	require.Equal(t, PhaseDeclared, w.Phase())
	require.NoError(t, w.Finalize())
	return w.Unit().Method(unit.MethodInject).Body
}

func TestConfigBuilderValueProperty(t *testing.T) {
	b := builderInject(t,
		ConfigBuilder{Type: poolBuilder, Accessor: "pool"},
		ConfigBuilderMethod{Prefix: "With", ConfigurationPrefix: "db", MethodName: "WithMaxSize", ParamType: model.Int.Ptr(), ReturnType: poolBuilder},
	)
	want := []string{
		"load 0", "load 1", "load 2",
		"const type int", `const "maxSize"`,
		"invoke.static beandef.Argument.Of(beandef.Type,string) beandef.Argument",
		"newarray string 2", "dup",
		"const 0", `const "db"`, "astore", "dup",
		"const 1", `const "maxSize"`, "astore",
		"invoke.super beandef.AbstractDefinition.ResolveValueForPath(beandef.ResolutionContext,beandef.Container,beandef.Argument,[]string) beandef.Optional",
		"store 5", "load 5",
		"invoke.virtual beandef.Optional.IsPresent() bool",
		"iffalse L1",
		"L2:",
		"load 4",
		"getfield cars.Car.pool pool.Builder",
		"load 5",
		"invoke.virtual beandef.Optional.Get() any",
		"checkcast int",
		"invoke.virtual pool.Builder.WithMaxSize(int) pool.Builder",
		"pop",
		"L3:",
		"goto L5",
		"L4:",
		"pop",
		"load 0",
		"const type pool.Builder",
		`const "WithMaxSize"`,
		`const "maxSize"`,
		"invoke.super beandef.AbstractDefinition.WarnMissingProperty(beandef.Type,string,string) void",
		"L5:",
		"L1:",
	}
	got := listing(b)[5 : 5+len(want)]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inject body (-want +got):\n%s", diff)
	}
	require.Equal(t, []asm.Handler{{Start: 2, End: 3, Target: 4, Catch: asm.CatchNoSuchMethod}}, b.Handlers)
}

func TestConfigBuilderFlagProperty(t *testing.T) {
	b := builderInject(t,
		ConfigBuilder{Type: poolBuilder, Accessor: "Pool", ViaMethod: true},
		ConfigBuilderMethod{Prefix: "Enable", MethodName: "EnableMetrics"},
	)
	l := listing(b)
	i := calls(b, unit.OptionalIsPresent.Name)[0]
	require.Equal(t, []string{
		"invoke.virtual beandef.Optional.IsPresent() bool",
		"iffalse L1",
		"load 5",
		"invoke.virtual beandef.Optional.Get() any",
		"checkcast bool",
		"iffalse L1",
		"L2:",
		"load 4",
		"invoke.virtual cars.Car.Pool() pool.Builder",
		"invoke.virtual pool.Builder.EnableMetrics() void",
		"L3:",
	}, l[i:i+11])
	require.Contains(t, l, "const type bool")
	require.Contains(t, l, `const "metrics"`)
}

func TestConfigBuilderDurationProperty(t *testing.T) {
	b := builderInject(t,
		ConfigBuilder{Type: poolBuilder, Accessor: "pool"},
		ConfigBuilderMethod{Prefix: "With", MethodName: "WithIdleTimeout", Duration: true},
	)
	l := listing(b)
	i := calls(b, unit.DurationMilliseconds.Name)[0]
	require.Equal(t, []string{
		"load 5",
		"invoke.virtual beandef.Optional.Get() any",
		"checkcast time.Duration",
		"invoke.virtual time.Duration.Milliseconds() int64",
		"getstatic beandef.TimeUnit.Milliseconds beandef.TimeUnit",
		"invoke.virtual pool.Builder.WithIdleTimeout(int64,beandef.TimeUnit) void",
	}, l[i-3:i+3])
	require.Contains(t, l, "const type time.Duration")
}

func TestConfigBuilderFactoryMethod(t *testing.T) {
	md := model.AnnotationMetadata{}.Annotate(model.AnnotationConfigurationBuilder, model.MemberFactoryMethod, "NewBuilder")
	b := builderInject(t, ConfigBuilder{Type: poolBuilder, Accessor: "pool", Metadata: md})
	require.Equal(t, []string{
		"load 4",
		"invoke.static pool.Builder.NewBuilder() pool.Builder",
		"putfield cars.Car.pool pool.Builder",
	}, listing(b)[5:8])
}

func TestConfigBuilderMultiplePropertiesUseDistinctHandlers(t *testing.T) {
	b := builderInject(t,
		ConfigBuilder{Type: poolBuilder, Accessor: "pool"},
		ConfigBuilderMethod{Prefix: "With", MethodName: "WithMinSize", ParamType: model.Int.Ptr()},
		ConfigBuilderMethod{Prefix: "With", MethodName: "WithName", ParamType: model.String.Ptr()},
	)
	require.Len(t, b.Handlers, 2)
	require.NotEqual(t, b.Handlers[0].Target, b.Handlers[1].Target)
	require.Len(t, calls(b, unit.WarnMissingProperty.Name), 2)
	require.NoError(t, asm.Verify(b))
}

func TestConfigBuilderRejectsEmptyProperty(t *testing.T) {
	w := declared(t)
	require.NoError(t, w.BeginConfigBuilder(ConfigBuilder{Type: poolBuilder, Accessor: "pool"}))
	err := w.VisitConfigBuilderMethod(ConfigBuilderMethod{Prefix: "With", MethodName: "With", ParamType: model.Int.Ptr()})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = w.VisitConfigBuilderMethod(ConfigBuilderMethod{
		Prefix: "With", MethodName: "WithTags", ParamType: model.T("java.util", "List").Ptr(),
		Generics: []model.Generic{{Name: "", Type: model.String}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Contains(t, err.Error(), "tags")
	require.Empty(t, w.Properties())
}

func TestConfigBuilderRecordsProperties(t *testing.T) {
	w := declared(t)
	require.NoError(t, w.BeginConfigBuilder(ConfigBuilder{Type: poolBuilder, Accessor: "pool"}))
	for _, m := range []ConfigBuilderMethod{
		{Prefix: "With", ConfigurationPrefix: "db", MethodName: "WithMaxSize", ParamType: model.Int.Ptr()},
		{Prefix: "Enable", MethodName: "EnableMetrics"},
		{Prefix: "With", MethodName: "WithIdleTimeout", Duration: true},
	} {
		require.NoError(t, w.VisitConfigBuilderMethod(m))
	}
	require.NoError(t, w.EndConfigBuilder())

	want := []Property{
		{Path: "db.maxSize", Type: model.Int, Builder: poolBuilder, Method: "WithMaxSize"},
		{Path: "metrics", Type: model.Bool, Builder: poolBuilder, Method: "EnableMetrics"},
		{Path: "idleTimeout", Type: model.Duration, Builder: poolBuilder, Method: "WithIdleTimeout"},
	}
	if diff := cmp.Diff(want, w.Properties()); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}
}
