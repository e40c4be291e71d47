package parser

import (
	"strings"

	"github.com/cmmoran/beandefgen/pkg/model"
)

// Excludes reports whether the bean of type t is left out of a compile run.
func (o *Options) Excludes(t model.TypeRef, md model.AnnotationMetadata) bool {
	if o.ExcludeDeprecated && md.HasStereotype(model.AnnotationDeprecated) {
		return true
	}
	for _, ex := range o.ExcludeTypes {
		if matchesType(ex, t) {
			return true
		}
	}
	return false
}

// matchesType compares a user supplied name against t. A name with a
// package qualifier must match fully, a bare name matches the simple name.
func matchesType(name string, t model.TypeRef) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, ".") {
		return strings.EqualFold(name, t.String())
	}
	return strings.EqualFold(name, t.Name)
}
