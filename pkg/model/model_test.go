package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseTypeRef(ttt *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    TypeRef
		wantErr bool
	}{
		{name: "builtin", in: "string", want: TypeRef{Name: "string"}},
		{name: "dotted package", in: "com.example.Engine", want: TypeRef{PkgPath: "com.example", Name: "Engine"}},
		{name: "import path", in: "github.com/acme/cars.Engine", want: TypeRef{PkgPath: "github.com/acme/cars", Name: "Engine"}},
		{name: "array", in: "[][]int", want: TypeRef{Name: "int", Dims: 2}},
		{name: "definition name", in: "com.example.$EngineDefinition", want: TypeRef{PkgPath: "com.example", Name: "$EngineDefinition"}},
		{name: "empty", in: "  ", wantErr: true},
		{name: "trailing dot", in: "com.example.", wantErr: true},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTypeRef(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, MustParseTypeRef(got.String()))
		})
	}
}

func TestTypeRefArrays(t *testing.T) {
	s := String.ArrayOf()
	require.True(t, s.IsArray())
	require.Equal(t, "[]string", s.String())
	require.Equal(t, String, s.Elem())
	require.Equal(t, String, String.Elem())
	require.True(t, TypeRef{}.IsVoid())
	require.True(t, Void.IsVoid())
	require.False(t, Int.IsVoid())
}

func TestAnnotationMetadataTriples(t *testing.T) {
	md := AnnotationMetadata{}.
		Annotate("Singleton").
		Annotate(AnnotationValue, MemberValue, "${engine.cylinders}").
		Annotate("Named", MemberValue, "v8", "primary", "true")

	want := []string{
		"Named", "primary", "true",
		"Named", "value", "v8",
		"Singleton", "", "",
		"Value", "value", "${engine.cylinders}",
	}
	got := md.Triples()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Triples() mismatch (-want +got):\n%s", diff)
	}

	back, err := MetadataFromTriples(got)
	require.NoError(t, err)
	require.Equal(t, md, back)
	require.Equal(t, "engine.cylinders", back.ValueKey("cylinders"))

	_, err = MetadataFromTriples([]string{"a", "b"})
	require.True(t, errors.Is(err, ErrInvalidInput))
}

func TestValueKey(t *testing.T) {
	require.Equal(t, "fallback", AnnotationMetadata(nil).ValueKey("fallback"))
	require.Equal(t, "plain.key", AnnotationMetadata{}.Annotate(AnnotationValue, MemberValue, "plain.key").ValueKey("x"))
	require.Equal(t, "with.default", AnnotationMetadata{}.Annotate(AnnotationValue, MemberValue, "${with.default:8}").ValueKey("x"))
	require.Equal(t, "prop", AnnotationMetadata{}.Annotate(AnnotationProperty, MemberValue, "prop").ValueKey("x"))
}

func TestValidateGenerics(t *testing.T) {
	arg := Argument{
		Name: "wheels",
		Type: T("java.util", "Map"),
		Generics: []Generic{
			{Name: "K", Type: String},
			{Name: "V", Type: T("java.util", "List"), Generics: []Generic{{Type: Int}}},
		},
	}
	err := arg.Validate()
	require.True(t, errors.Is(err, ErrInvalidInput))
	require.Contains(t, err.Error(), `"wheels.V"`)

	arg.Generics[1].Generics[0].Name = "E"
	require.NoError(t, arg.Validate())

	require.Error(t, Argument{Name: "untyped"}.Validate())
}

func TestQualifier(t *testing.T) {
	require.Nil(t, AnnotationMetadata{}.Qualifier())
	q := AnnotationMetadata{}.Annotate(AnnotationQualifier, MemberValue, "cars.V8").Qualifier()
	require.NotNil(t, q)
	require.Equal(t, T("cars", "V8"), *q)
}
