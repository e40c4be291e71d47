// Package inspect loads compiled units back and describes them.
package inspect

import (
	"fmt"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/cmmoran/beandefgen/internal/sink"
	"github.com/cmmoran/beandefgen/internal/vm"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// Definition summarizes one loaded definition.
type Definition struct {
	Name          string   `json:"name" yaml:"name"`
	BeanType      string   `json:"bean_type" yaml:"bean_type"`
	Factory       string   `json:"factory,omitempty" yaml:"factory,omitempty"`
	Constructor   []string `json:"constructor,omitempty" yaml:"constructor,omitempty"`
	Fields        []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods       []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	PostConstruct []string `json:"post_construct,omitempty" yaml:"post_construct,omitempty"`
	PreDestroy    []string `json:"pre_destroy,omitempty" yaml:"pre_destroy,omitempty"`
	Executables   []string `json:"executables,omitempty" yaml:"executables,omitempty"`
	Parametrized  bool     `json:"parametrized,omitempty" yaml:"parametrized,omitempty"`
	Reflection    bool     `json:"reflection,omitempty" yaml:"reflection,omitempty"`
}

// Summary is the result of inspecting a source.
type Summary struct {
	Units       int          `json:"units" yaml:"units"`
	Definitions []Definition `json:"definitions" yaml:"definitions"`
}

// Load verifies and loads every unit in src.
func Load(src sink.Source, opts ...vm.LoaderOption) (*vm.Loader, error) {
	names, err := src.Names()
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	l := vm.NewLoader(opts...)
	for _, name := range names {
		data, err := src.Load(name)
		if err != nil {
			return nil, err
		}
		if _, err := l.AddEncoded(data); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	return l, nil
}

// Inspect loads src and defines every definition unit in it.
func Inspect(src sink.Source, opts ...vm.LoaderOption) (*Summary, error) {
	l, err := Load(src, opts...)
	if err != nil {
		return nil, err
	}
	names, err := src.Names()
	if err != nil {
		return nil, err
	}
	s := &Summary{Units: len(names)}
	for _, name := range l.Definitions() {
		d, err := l.Define(name)
		if err != nil {
			return nil, err
		}
		s.Definitions = append(s.Definitions, describe(d))
	}
	return s, nil
}

func describe(d *vm.Definition) Definition {
	out := Definition{
		Name:         d.Name(),
		BeanType:     d.BeanType().String(),
		Parametrized: d.IsParametrized(),
		Reflection:   d.RequiresReflection(),
	}
	if f := d.Factory(); f != nil {
		out.Factory = f.Type.String() + "." + f.Method
	}
	for _, a := range d.ConstructorArguments() {
		out.Constructor = append(out.Constructor, a.String())
	}
	for _, f := range d.Fields() {
		out.Fields = append(out.Fields, f.Argument.String())
	}
	for _, m := range d.Methods() {
		out.Methods = append(out.Methods, method(m))
	}
	for _, m := range d.PostConstructMethods() {
		out.PostConstruct = append(out.PostConstruct, method(m))
	}
	for _, m := range d.PreDestroyMethods() {
		out.PreDestroy = append(out.PreDestroy, method(m))
	}
	for _, e := range d.ExecutableMethods() {
		out.Executables = append(out.Executables, e.Name)
	}
	return out
}

func method(m *vm.MethodInjectionPoint) string {
	args := make([]string, len(m.Arguments))
	for i, a := range m.Arguments {
		args[i] = a.String()
	}
	return m.Name + "(" + strings.Join(args, ", ") + ")"
}

// count renders "1 field" or "3 fields".
func count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %s", n, inflection.Plural(noun))
}

// String renders a short human readable report.
func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s\n", count(len(s.Definitions), "definition"), count(s.Units, "unit"))
	for _, d := range s.Definitions {
		fmt.Fprintf(&sb, "%s (%s): %s, %s, %s",
			d.Name, d.BeanType,
			count(len(d.Fields), "field"),
			count(len(d.Methods), "method"),
			count(len(d.Executables), "executable"))
		if d.Factory != "" {
			fmt.Fprintf(&sb, ", factory %s", d.Factory)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Listing renders the named unit from src.
func Listing(src sink.Source, name string) (string, error) {
	data, err := src.Load(name)
	if err != nil {
		return "", err
	}
	u, err := unit.Decode(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return unit.Listing(u), nil
}

// Listings renders every unit in src, in name order.
func Listings(src sink.Source) (string, error) {
	names, err := src.Names()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i, name := range names {
		text, err := Listing(src, name)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
