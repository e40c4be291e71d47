package parser

import (
	"errors"
	"fmt"

	"github.com/cmmoran/beandefgen/internal/writer"
	"github.com/cmmoran/beandefgen/pkg/model"
)

var ErrInvalidDescription = errors.New("invalid description")

func invalid(path, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidDescription, path, fmt.Sprintf(format, args...))
}

// Bean is a validated description ready to replay into a writer.
type Bean struct {
	Source    string
	Type      model.TypeRef
	Name      string
	Interface bool
	Metadata  model.AnnotationMetadata

	// SuperType is zero unless the description names a custom base.
	SuperType  model.TypeRef
	Interfaces []model.TypeRef
	Validated  bool

	Constructor *EntryPoint
	Factory     *FactoryEntry

	Fields        []writer.FieldPoint
	Setters       []writer.SetterPoint
	Methods       []writer.MethodPoint
	Builders      []ConfigBuilder
	PostConstruct []writer.MethodPoint
	PreDestroy    []writer.MethodPoint
	Executables   []writer.ExecutableMethod

	RequiresMethodProcessing bool
}

type EntryPoint struct {
	Metadata           model.AnnotationMetadata
	RequiresReflection bool
	Arguments          []model.Argument
}

type FactoryEntry struct {
	Type      model.TypeRef
	Method    string
	Metadata  model.AnnotationMetadata
	Arguments []model.Argument
}

type ConfigBuilder struct {
	writer.ConfigBuilder
	Methods []writer.ConfigBuilderMethod
}

// ToBean validates d and maps it onto writer inputs. path prefixes every
// error, e.g. "beans[2]".
func ToBean(path string, d *Description) (*Bean, error) {
	if d == nil {
		return nil, invalid(path, "empty bean")
	}
	t, err := typeRef(path+".type", d.Type)
	if err != nil {
		return nil, err
	}
	b := &Bean{
		Type:                     t,
		Name:                     d.Name,
		Interface:                d.Interface,
		Metadata:                 metadata(d.Annotations),
		Validated:                d.Validated,
		RequiresMethodProcessing: d.RequiresMethodProcessing,
	}
	if d.SuperType != "" {
		if b.SuperType, err = typeRef(path+".super_type", d.SuperType); err != nil {
			return nil, err
		}
	}
	for i, s := range d.Interfaces {
		it, err := typeRef(fmt.Sprintf("%s.interfaces[%d]", path, i), s)
		if err != nil {
			return nil, err
		}
		b.Interfaces = append(b.Interfaces, it)
	}

	switch {
	case d.Constructor != nil && d.Factory != nil:
		return nil, invalid(path, "constructor and factory are mutually exclusive")
	case d.Factory != nil:
		if b.Factory, err = factory(path+".factory", d.Factory); err != nil {
			return nil, err
		}
	case d.Constructor != nil:
		args, err := arguments(path+".constructor.arguments", d.Constructor.Arguments)
		if err != nil {
			return nil, err
		}
		b.Constructor = &EntryPoint{
			Metadata:           metadata(d.Constructor.Annotations),
			RequiresReflection: d.Constructor.Reflection,
			Arguments:          args,
		}
	default:
		b.Constructor = &EntryPoint{}
	}

	for i, f := range d.Fields {
		p, err := field(fmt.Sprintf("%s.fields[%d]", path, i), f)
		if err != nil {
			return nil, err
		}
		b.Fields = append(b.Fields, p)
	}
	for i, s := range d.Setters {
		p, err := setter(fmt.Sprintf("%s.setters[%d]", path, i), s)
		if err != nil {
			return nil, err
		}
		b.Setters = append(b.Setters, p)
	}
	if b.Methods, err = methods(path+".methods", d.Methods); err != nil {
		return nil, err
	}
	for i, cb := range d.Builders {
		p, err := builder(fmt.Sprintf("%s.builders[%d]", path, i), cb)
		if err != nil {
			return nil, err
		}
		b.Builders = append(b.Builders, p)
	}
	if b.PostConstruct, err = methods(path+".post_construct", d.PostConstruct); err != nil {
		return nil, err
	}
	if b.PreDestroy, err = methods(path+".pre_destroy", d.PreDestroy); err != nil {
		return nil, err
	}
	for i, e := range d.Executables {
		p, err := executable(fmt.Sprintf("%s.executables[%d]", path, i), e)
		if err != nil {
			return nil, err
		}
		b.Executables = append(b.Executables, p)
	}
	return b, nil
}

func typeRef(path, s string) (model.TypeRef, error) {
	if s == "" {
		return model.TypeRef{}, invalid(path, "type is required")
	}
	t, err := model.ParseTypeRef(s)
	if err != nil {
		return model.TypeRef{}, invalid(path, "%v", err)
	}
	return t, nil
}

// optionalType parses s when set.
func optionalType(path, s string) (*model.TypeRef, error) {
	if s == "" {
		return nil, nil
	}
	t, err := typeRef(path, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// declaringType parses s, leaving the zero type for the writer's default.
func declaringType(path, s string) (model.TypeRef, error) {
	if s == "" {
		return model.TypeRef{}, nil
	}
	return typeRef(path, s)
}

func metadata(a Annotations) model.AnnotationMetadata {
	if len(a) == 0 {
		return nil
	}
	md := model.AnnotationMetadata{}
	for ann, members := range a {
		md.Annotate(ann)
		for k, v := range members {
			md.Annotate(ann, k, v)
		}
	}
	return md
}

func generics(path string, gs []*Generic) ([]model.Generic, error) {
	if len(gs) == 0 {
		return nil, nil
	}
	out := make([]model.Generic, len(gs))
	for i, g := range gs {
		p := fmt.Sprintf("%s[%d]", path, i)
		if g == nil || g.Name == "" {
			return nil, invalid(p, "generic parameter has no name")
		}
		t, err := typeRef(p+".type", g.Type)
		if err != nil {
			return nil, err
		}
		nested, err := generics(p+".generics", g.Generics)
		if err != nil {
			return nil, err
		}
		out[i] = model.Generic{Name: g.Name, Type: t, Generics: nested}
	}
	return out, nil
}

func argument(path string, a *Argument) (model.Argument, error) {
	if a == nil || a.Name == "" {
		return model.Argument{}, invalid(path+".name", "argument name is required")
	}
	t, err := typeRef(path+".type", a.Type)
	if err != nil {
		return model.Argument{}, err
	}
	q, err := optionalType(path+".qualifier", a.Qualifier)
	if err != nil {
		return model.Argument{}, err
	}
	gs, err := generics(path+".generics", a.Generics)
	if err != nil {
		return model.Argument{}, err
	}
	md := metadata(a.Annotations)
	if q == nil {
		q = md.Qualifier()
	}
	return model.Argument{Name: a.Name, Type: t, Qualifier: q, Metadata: md, Generics: gs}, nil
}

func arguments(path string, as []*Argument) ([]model.Argument, error) {
	var out []model.Argument
	for i, a := range as {
		arg, err := argument(fmt.Sprintf("%s[%d]", path, i), a)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

func factory(path string, f *Factory) (*FactoryEntry, error) {
	t, err := typeRef(path+".type", f.Type)
	if err != nil {
		return nil, err
	}
	if f.Method == "" {
		return nil, invalid(path+".method", "factory method is required")
	}
	args, err := arguments(path+".arguments", f.Arguments)
	if err != nil {
		return nil, err
	}
	return &FactoryEntry{Type: t, Method: f.Method, Metadata: metadata(f.Annotations), Arguments: args}, nil
}

func field(path string, f *Field) (writer.FieldPoint, error) {
	if f == nil || f.Name == "" {
		return writer.FieldPoint{}, invalid(path+".name", "field name is required")
	}
	t, err := typeRef(path+".type", f.Type)
	if err != nil {
		return writer.FieldPoint{}, err
	}
	declaring, err := declaringType(path+".declaring", f.Declaring)
	if err != nil {
		return writer.FieldPoint{}, err
	}
	q, err := optionalType(path+".qualifier", f.Qualifier)
	if err != nil {
		return writer.FieldPoint{}, err
	}
	gs, err := generics(path+".generics", f.Generics)
	if err != nil {
		return writer.FieldPoint{}, err
	}
	return writer.FieldPoint{
		DeclaringType:      declaring,
		Name:               f.Name,
		Type:               t,
		Qualifier:          q,
		Metadata:           metadata(f.Annotations),
		Generics:           gs,
		RequiresReflection: f.Reflection,
		Value:              f.Value,
		Optional:           f.Optional,
	}, nil
}

func setter(path string, s *Setter) (writer.SetterPoint, error) {
	if s == nil || s.Name == "" {
		return writer.SetterPoint{}, invalid(path+".name", "setter name is required")
	}
	t, err := typeRef(path+".type", s.Type)
	if err != nil {
		return writer.SetterPoint{}, err
	}
	declaring, err := declaringType(path+".declaring", s.Declaring)
	if err != nil {
		return writer.SetterPoint{}, err
	}
	q, err := optionalType(path+".qualifier", s.Qualifier)
	if err != nil {
		return writer.SetterPoint{}, err
	}
	gs, err := generics(path+".generics", s.Generics)
	if err != nil {
		return writer.SetterPoint{}, err
	}
	return writer.SetterPoint{
		DeclaringType:      declaring,
		Name:               s.Name,
		FieldName:          s.Field,
		Type:               t,
		Qualifier:          q,
		Metadata:           metadata(s.Annotations),
		Generics:           gs,
		RequiresReflection: s.Reflection,
		Value:              s.Value,
		Optional:           s.Optional,
	}, nil
}

func methods(path string, ms []*Method) ([]writer.MethodPoint, error) {
	var out []writer.MethodPoint
	for i, m := range ms {
		p := fmt.Sprintf("%s[%d]", path, i)
		if m == nil || m.Name == "" {
			return nil, invalid(p+".name", "method name is required")
		}
		declaring, err := declaringType(p+".declaring", m.Declaring)
		if err != nil {
			return nil, err
		}
		returns, err := declaringType(p+".returns", m.Returns)
		if err != nil {
			return nil, err
		}
		args, err := arguments(p+".arguments", m.Arguments)
		if err != nil {
			return nil, err
		}
		out = append(out, writer.MethodPoint{
			DeclaringType:      declaring,
			Name:               m.Name,
			ReturnType:         returns,
			Arguments:          args,
			Metadata:           metadata(m.Annotations),
			RequiresReflection: m.Reflection,
		})
	}
	return out, nil
}

func builder(path string, b *BuilderDescription) (ConfigBuilder, error) {
	if b == nil {
		return ConfigBuilder{}, invalid(path, "empty builder")
	}
	t, err := typeRef(path+".type", b.Type)
	if err != nil {
		return ConfigBuilder{}, err
	}
	if b.Accessor == "" {
		return ConfigBuilder{}, invalid(path+".accessor", "builder accessor is required")
	}
	out := ConfigBuilder{ConfigBuilder: writer.ConfigBuilder{
		Type:      t,
		Accessor:  b.Accessor,
		ViaMethod: b.ViaMethod,
		Metadata:  metadata(b.Annotations),
	}}
	for i, p := range b.Properties {
		pp := fmt.Sprintf("%s.properties[%d]", path, i)
		if p == nil || p.Method == "" {
			return ConfigBuilder{}, invalid(pp+".method", "property method is required")
		}
		returns, err := declaringType(pp+".returns", p.Returns)
		if err != nil {
			return ConfigBuilder{}, err
		}
		param, err := optionalType(pp+".param", p.Param)
		if err != nil {
			return ConfigBuilder{}, err
		}
		gs, err := generics(pp+".generics", p.Generics)
		if err != nil {
			return ConfigBuilder{}, err
		}
		out.Methods = append(out.Methods, writer.ConfigBuilderMethod{
			Prefix:              p.Prefix,
			ConfigurationPrefix: p.ConfigurationPrefix,
			ReturnType:          returns,
			MethodName:          p.Method,
			ParamType:           param,
			Generics:            gs,
			Duration:            p.Duration,
		})
	}
	return out, nil
}

func executable(path string, e *Executable) (writer.ExecutableMethod, error) {
	if e == nil || e.Name == "" {
		return writer.ExecutableMethod{}, invalid(path+".name", "method name is required")
	}
	declaring, err := declaringType(path+".declaring", e.Declaring)
	if err != nil {
		return writer.ExecutableMethod{}, err
	}
	returns, err := declaringType(path+".returns", e.Returns)
	if err != nil {
		return writer.ExecutableMethod{}, err
	}
	rgs, err := generics(path+".return_generics", e.ReturnGenerics)
	if err != nil {
		return writer.ExecutableMethod{}, err
	}
	args, err := arguments(path+".arguments", e.Arguments)
	if err != nil {
		return writer.ExecutableMethod{}, err
	}
	return writer.ExecutableMethod{
		DeclaringType:  declaring,
		Name:           e.Name,
		ReturnType:     returns,
		ReturnGenerics: rgs,
		Arguments:      args,
		Metadata:       metadata(e.Annotations),
	}, nil
}
