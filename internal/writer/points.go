package writer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cmmoran/beandefgen/pkg/model"
)

// FieldPoint describes a field to inject.
type FieldPoint struct {
	DeclaringType      model.TypeRef // defaults to the bean type
	Name               string
	Type               model.TypeRef
	Qualifier          *model.TypeRef
	Metadata           model.AnnotationMetadata
	Generics           []model.Generic
	RequiresReflection bool
	Value              bool // resolve a property instead of a bean
	Optional           bool // skip silently when no value is present
}

// SetterPoint describes a single-argument setter. FieldName defaults to the
// setter name without its Set prefix.
type SetterPoint struct {
	DeclaringType      model.TypeRef
	Name               string
	FieldName          string
	Type               model.TypeRef
	Qualifier          *model.TypeRef
	Metadata           model.AnnotationMetadata
	Generics           []model.Generic
	RequiresReflection bool
	Value              bool
	Optional           bool
}

// MethodPoint describes an injected or lifecycle method. Each argument picks
// value or bean lookup from its own metadata.
type MethodPoint struct {
	DeclaringType      model.TypeRef
	Name               string
	ReturnType         model.TypeRef
	Arguments          []model.Argument
	Metadata           model.AnnotationMetadata
	RequiresReflection bool
}

// InjectionPoint is the record kept for every visited point.
type InjectionPoint struct {
	Kind      model.Kind
	Index     int
	Declaring model.TypeRef
	Name      string
	Strategy  Strategy
	Optional  bool
	Value     bool
}

func (p FieldPoint) argument() model.Argument {
	md := p.Metadata
	q := p.Qualifier
	if q == nil {
		q = md.Qualifier()
	}
	return model.Argument{Name: p.Name, Type: p.Type, Qualifier: q, Metadata: md, Generics: p.Generics}
}

func (p SetterPoint) fieldName() string {
	if p.FieldName != "" {
		return p.FieldName
	}
	for _, prefix := range []string{"Set", "set"} {
		if rest, ok := strings.CutPrefix(p.Name, prefix); ok && rest != "" {
			return decapitalize(rest)
		}
	}
	return p.Name
}

func (p SetterPoint) argument() model.Argument {
	q := p.Qualifier
	if q == nil {
		q = p.Metadata.Qualifier()
	}
	return model.Argument{Name: p.fieldName(), Type: p.Type, Qualifier: q, Metadata: p.Metadata, Generics: p.Generics}
}

func isValueLookup(md model.AnnotationMetadata) bool {
	return md.HasStereotype(model.AnnotationValue) || md.HasStereotype(model.AnnotationProperty)
}

func isParameter(md model.AnnotationMetadata) bool {
	return md.HasStereotype(model.AnnotationParameter)
}

// decapitalize lowers the first rune unless the first two are both upper
// case, so "URL" stays "URL" and "Name" becomes "name".
func decapitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	if next, _ := utf8.DecodeRuneInString(s[n:]); unicode.IsUpper(r) && unicode.IsUpper(next) {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}
