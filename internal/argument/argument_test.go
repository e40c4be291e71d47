package argument

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
)

func listing(b *asm.Body) []string {
	out := make([]string, len(b.Instrs))
	for i, in := range b.Instrs {
		out[i] = in.String()
	}
	return out
}

// closed returns the value on the stack and verifies the body left exactly one.
func closed(t *testing.T, b *asm.Body) {
	t.Helper()
	b.ReturnValue()
	require.NoError(t, asm.Verify(b))
}

func TestPushArrayDupDiscipline(ttt *testing.T) {
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "empty", n: 0, want: []string{"newarray string 0"}},
		{name: "one", n: 1, want: []string{
			"newarray string 1", "dup",
			"const 0", `const "v0"`, "astore",
		}},
		{name: "three", n: 3, want: []string{
			"newarray string 3", "dup",
			"const 0", `const "v0"`, "astore", "dup",
			"const 1", `const "v1"`, "astore", "dup",
			"const 2", `const "v2"`, "astore",
		}},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := asm.NewBody("x", 0)
			vals := []string{"v0", "v1", "v2"}[:tt.n]
			PushStringArray(b, vals)
			if diff := cmp.Diff(tt.want, listing(b)); diff != "" {
				t.Fatalf("instructions (-want +got):\n%s", diff)
			}
			closed(t, b)
		})
	}
}

func TestPushArgumentWithGenerics(t *testing.T) {
	b := asm.NewBody("x", 0)
	err := PushArgumentWithGenerics(b, "wheels", model.T("java.util", "Map"), []model.Generic{
		{Name: "K", Type: model.String},
		{Name: "V", Type: model.T("java.util", "List"), Generics: []model.Generic{{Name: "E", Type: model.Int}}},
	})
	require.NoError(t, err)

	want := []string{
		"const type java.util.Map", `const "wheels"`,
		"newarray beandef.Argument 2", "dup",
		"const 0", "const type string", `const "K"`,
		"invoke.static beandef.Argument.Of(beandef.Type,string) beandef.Argument",
		"astore", "dup",
		"const 1", "const type java.util.List", `const "V"`,
		"newarray beandef.Argument 1", "dup",
		"const 0", "const type int", `const "E"`,
		"invoke.static beandef.Argument.Of(beandef.Type,string) beandef.Argument",
		"astore",
		"invoke.static beandef.Argument.OfGenerics(beandef.Type,string,[]beandef.Argument) beandef.Argument",
		"astore",
		"invoke.static beandef.Argument.OfGenerics(beandef.Type,string,[]beandef.Argument) beandef.Argument",
	}
	if diff := cmp.Diff(want, listing(b)); diff != "" {
		t.Fatalf("instructions (-want +got):\n%s", diff)
	}
	closed(t, b)
}

func TestPushArgumentWithoutGenerics(t *testing.T) {
	b := asm.NewBody("x", 0)
	require.NoError(t, PushArgumentWithGenerics(b, "name", model.String, nil))
	require.Equal(t, []string{
		"const type string", `const "name"`,
		"invoke.static beandef.Argument.Of(beandef.Type,string) beandef.Argument",
	}, listing(b))
}

func TestPushTypeArguments(ttt *testing.T) {
	tests := []struct {
		name     string
		generics []model.Generic
		want     []string
	}{
		{name: "none", want: []string{"const null"}},
		{name: "empty", generics: []model.Generic{}, want: []string{"const null"}},
		{name: "one", generics: []model.Generic{{Name: "E", Type: model.Int}}, want: []string{
			"newarray beandef.Argument 1", "dup",
			"const 0", "const type int", `const "E"`,
			"invoke.static beandef.Argument.Of(beandef.Type,string) beandef.Argument",
			"astore",
		}},
	}

	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := asm.NewBody("x", 0)
			require.NoError(t, PushTypeArguments(b, "wheels", tt.generics))
			if diff := cmp.Diff(tt.want, listing(b)); diff != "" {
				t.Errorf("listing mismatch (-want +got):\n%s", diff)
			}
			closed(t, b)
		})
	}
}

func TestInvalidGenericsEmitNothing(t *testing.T) {
	b := asm.NewBody("x", 0)
	err := PushArgumentWithGenerics(b, "wheels", model.T("java.util", "List"), []model.Generic{{Type: model.Int}})
	require.True(t, errors.Is(err, model.ErrInvalidInput))
	require.Contains(t, err.Error(), "wheels")
	require.Zero(t, b.Len())

	err = PushArguments(b, []model.Argument{
		{Name: "ok", Type: model.String},
		{Name: "bad", Type: model.T("java.util", "List"), Generics: []model.Generic{{Name: "E"}}},
	})
	require.True(t, errors.Is(err, model.ErrInvalidInput))
	require.Zero(t, b.Len())
}

func TestPushArguments(t *testing.T) {
	b := asm.NewBody("x", 0)
	q := model.T("cars", "V8")
	err := PushArguments(b, []model.Argument{
		{Name: "engine", Type: model.T("cars", "Engine"), Qualifier: &q},
		{Name: "size", Type: model.Int, Metadata: model.AnnotationMetadata{}.Annotate(model.AnnotationValue, model.MemberValue, "${size}")},
	})
	require.NoError(t, err)
	want := []string{
		"newarray beandef.Argument 2", "dup",
		"const 0", "const type cars.Engine", `const "engine"`, "const type cars.V8", "const null", "const null",
		"invoke.static beandef.Argument.OfAnnotated(beandef.Type,string,beandef.Type,beandef.AnnotationMetadata,[]beandef.Argument) beandef.Argument",
		"astore", "dup",
		"const 1", "const type int", `const "size"`, "const null",
		"newarray string 3", "dup",
		"const 0", `const "Value"`, "astore", "dup",
		"const 1", `const "value"`, "astore", "dup",
		"const 2", `const "${size}"`, "astore",
		"invoke.static beandef.AnnotationMetadata.FromTriples([]string) beandef.AnnotationMetadata",
		"const null",
		"invoke.static beandef.Argument.OfAnnotated(beandef.Type,string,beandef.Type,beandef.AnnotationMetadata,[]beandef.Argument) beandef.Argument",
		"astore",
	}
	if diff := cmp.Diff(want, listing(b)); diff != "" {
		t.Fatalf("instructions (-want +got):\n%s", diff)
	}
	closed(t, b)
}

func TestPushAnnotationMetadataEmpty(t *testing.T) {
	b := asm.NewBody("x", 0)
	PushAnnotationMetadata(b, nil)
	require.Equal(t, []string{"const null"}, listing(b))
}
