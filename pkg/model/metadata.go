package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidInput = errors.New("invalid input")

// Annotation names the compiler reacts to.
const (
	AnnotationValue                   = "Value"
	AnnotationProperty                = "Property"
	AnnotationParameter               = "Parameter"
	AnnotationQualifier               = "Qualifier"
	AnnotationConfigurationProperties = "ConfigurationProperties"
	AnnotationConfigurationBuilder    = "ConfigurationBuilder"
	AnnotationDeprecated              = "Deprecated"

	// MemberValue is the default annotation member.
	MemberValue = "value"
	// MemberFactoryMethod names a static factory on a configuration builder type.
	MemberFactoryMethod = "factoryMethod"
)

// AnnotationMetadata maps annotation name to member name to value. An
// annotation with no members is present with an empty member map.
type AnnotationMetadata map[string]map[string]string

// Annotate returns md with ann set. members is read as name, value pairs.
func (md AnnotationMetadata) Annotate(ann string, members ...string) AnnotationMetadata {
	if md == nil {
		md = AnnotationMetadata{}
	}
	m := md[ann]
	if m == nil {
		m = map[string]string{}
		md[ann] = m
	}
	for i := 0; i+1 < len(members); i += 2 {
		m[members[i]] = members[i+1]
	}
	return md
}

func (md AnnotationMetadata) IsEmpty() bool { return len(md) == 0 }

func (md AnnotationMetadata) HasStereotype(ann string) bool {
	_, ok := md[ann]
	return ok
}

func (md AnnotationMetadata) Value(ann, member string) (string, bool) {
	m, ok := md[ann]
	if !ok {
		return "", false
	}
	v, ok := m[member]
	return v, ok
}

// Triples flattens md into sorted (annotation, member, value) triples. An
// annotation without members yields (annotation, "", "").
func (md AnnotationMetadata) Triples() []string {
	anns := make([]string, 0, len(md))
	for a := range md {
		anns = append(anns, a)
	}
	sort.Strings(anns)

	var out []string
	for _, a := range anns {
		members := md[a]
		if len(members) == 0 {
			out = append(out, a, "", "")
			continue
		}
		names := make([]string, 0, len(members))
		for n := range members {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, a, n, members[n])
		}
	}
	return out
}

// MetadataFromTriples reverses Triples.
func MetadataFromTriples(triples []string) (AnnotationMetadata, error) {
	if len(triples)%3 != 0 {
		return nil, fmt.Errorf("%w: %d metadata strings is not a multiple of 3", ErrInvalidInput, len(triples))
	}
	md := AnnotationMetadata{}
	for i := 0; i < len(triples); i += 3 {
		if triples[i+1] == "" {
			md.Annotate(triples[i])
			continue
		}
		md.Annotate(triples[i], triples[i+1], triples[i+2])
	}
	return md, nil
}

// Qualifier reads the Qualifier annotation's value as a type.
func (md AnnotationMetadata) Qualifier() *TypeRef {
	v, ok := md.Value(AnnotationQualifier, MemberValue)
	if !ok || v == "" {
		return nil
	}
	t, err := ParseTypeRef(v)
	if err != nil {
		return nil
	}
	return &t
}

// ValueKey is the property key a Value-annotated point resolves: the
// annotation's value with any ${...} placeholder unwrapped, or fallback.
func (md AnnotationMetadata) ValueKey(fallback string) string {
	for _, ann := range []string{AnnotationValue, AnnotationProperty} {
		v, ok := md.Value(ann, MemberValue)
		if !ok || v == "" {
			continue
		}
		if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
			v = v[2 : len(v)-1]
			if i := strings.Index(v, ":"); i >= 0 {
				v = v[:i]
			}
		}
		return v
	}
	return fallback
}
