package model

import (
	"fmt"
	"strings"
)

// TypeRef names a type by package path and simple name. Dims counts array
// dimensions, so []string has Name "string" and Dims 1.
type TypeRef struct {
	PkgPath string `json:"pkg_path,omitempty" yaml:"pkg_path,omitempty" bson:"pkg,omitempty"` // "" for builtins
	Name    string `json:"name" yaml:"name" bson:"name"`                                      // "string", "Engine", "$EngineDefinition"
	Dims    int    `json:"dims,omitempty" yaml:"dims,omitempty" bson:"dims,omitempty"`
}

// T is shorthand for TypeRef{PkgPath: pkg, Name: name}.
func T(pkg, name string) TypeRef {
	return TypeRef{PkgPath: pkg, Name: name}
}

// ParseTypeRef accepts "name", "pkg.name", "path/to/pkg.Name" and any of
// those prefixed with one "[]" per array dimension.
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	var t TypeRef
	for strings.HasPrefix(s, "[]") {
		t.Dims++
		s = s[2:]
	}
	if s == "" {
		return TypeRef{}, fmt.Errorf("empty type name")
	}
	slash := strings.LastIndex(s, "/")
	dot := strings.LastIndex(s, ".")
	if dot > slash {
		t.PkgPath, t.Name = s[:dot], s[dot+1:]
	} else {
		t.Name = s
	}
	if t.Name == "" {
		return TypeRef{}, fmt.Errorf("type %q has no simple name", s)
	}
	return t, nil
}

// MustParseTypeRef is ParseTypeRef for static tables and tests.
func MustParseTypeRef(s string) TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TypeRef) String() string {
	prefix := strings.Repeat("[]", t.Dims)
	if t.PkgPath == "" {
		return prefix + t.Name
	}
	return prefix + t.PkgPath + "." + t.Name
}

func (t TypeRef) IsZero() bool { return t == TypeRef{} }

func (t TypeRef) IsArray() bool { return t.Dims > 0 }

func (t TypeRef) IsVoid() bool { return t == Void || t.IsZero() }

// Elem strips one array dimension.
func (t TypeRef) Elem() TypeRef {
	if t.Dims > 0 {
		t.Dims--
	}
	return t
}

func (t TypeRef) ArrayOf() TypeRef {
	t.Dims++
	return t
}

// Ptr returns a pointer to a copy of t, for optional instruction operands.
func (t TypeRef) Ptr() *TypeRef {
	return &t
}

// Generic is one named type parameter binding, possibly with its own bindings.
type Generic struct {
	Name     string    `json:"name" yaml:"name"`
	Type     TypeRef   `json:"type" yaml:"type"`
	Generics []Generic `json:"generics,omitempty" yaml:"generics,omitempty"`
}

// Argument describes a constructor or method parameter, or the value side of
// a field or setter.
type Argument struct {
	Name      string
	Type      TypeRef
	Qualifier *TypeRef
	Metadata  AnnotationMetadata
	Generics  []Generic
}

// Validate rejects unnamed or untyped generic bindings, naming the offending
// property path.
func (a Argument) Validate() error {
	if a.Type.IsZero() {
		return fmt.Errorf("%w: argument %q has no type", ErrInvalidInput, a.Name)
	}
	return ValidateGenerics(a.Name, a.Generics)
}

// ValidateGenerics walks generics depth-first. path is the property the
// bindings belong to.
func ValidateGenerics(path string, generics []Generic) error {
	for i, g := range generics {
		if g.Name == "" {
			return fmt.Errorf("%w: generic parameter %d of %q has no name", ErrInvalidInput, i, path)
		}
		if g.Type.IsZero() {
			return fmt.Errorf("%w: generic parameter %q of %q has no type", ErrInvalidInput, g.Name, path)
		}
		if err := ValidateGenerics(path+"."+g.Name, g.Generics); err != nil {
			return err
		}
	}
	return nil
}

// Types returns the declared type of every argument, in order.
func Types(args []Argument) []TypeRef {
	out := make([]TypeRef, len(args))
	for i, a := range args {
		out[i] = a.Type
	}
	return out
}
