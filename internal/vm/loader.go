// Package vm loads compiled units and executes their bodies against a
// Container. Bean classes are described to it through a Class registry;
// reflective injection resolves members by name through the same registry.
package vm

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

type Loader struct {
	log *slog.Logger

	mu      sync.RWMutex
	classes map[model.TypeRef]*Class
	units   map[string]*unit.Unit
}

type LoaderOption func(*Loader)

func WithLogger(l *slog.Logger) LoaderOption { return func(ld *Loader) { ld.log = l } }

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		log:     slog.Default(),
		classes: map[model.TypeRef]*Class{},
		units:   map[string]*unit.Unit{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds class descriptions, replacing any with the same type.
func (l *Loader) Register(classes ...*Class) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range classes {
		l.classes[c.Type] = c
	}
}

// Add verifies and loads units.
func (l *Loader) Add(units ...*unit.Unit) error {
	for _, u := range units {
		for _, m := range u.Methods {
			if m.Body == nil {
				return fmt.Errorf("load %s: method %s has no body: %w", u.Name, m.Name, asm.ErrMalformed)
			}
			if err := asm.Verify(m.Body); err != nil {
				return fmt.Errorf("load %s: %w", u.Name, err)
			}
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range units {
		l.units[u.Name] = u
	}
	return nil
}

// AddEncoded decodes and loads one unit.
func (l *Loader) AddEncoded(data []byte) (*unit.Unit, error) {
	u, err := unit.Decode(data)
	if err != nil {
		return nil, err
	}
	return u, l.Add(u)
}

func (l *Loader) Unit(name string) (*unit.Unit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.units[name]
	return u, ok
}

// Definitions lists the names of loaded definition units.
func (l *Loader) Definitions() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []string
	for name, u := range l.units {
		if u.Kind == unit.KindDefinition {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (l *Loader) class(t model.TypeRef) (*Class, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.classes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchClass, t)
	}
	return c, nil
}

// Define runs the constructor of the named definition unit.
func (l *Loader) Define(name string) (*Definition, error) {
	u, ok := l.Unit(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchUnit, name)
	}
	if u.Kind != unit.KindDefinition {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNoSuchUnit, name, u.Kind)
	}
	d := &Definition{loader: l, unit: u, log: l.log.With(slog.String("definition", name))}
	if _, err := l.run(d, u.Method(unit.MethodInit)); err != nil {
		return nil, fmt.Errorf("define %s: %w", name, err)
	}
	if m := u.Method(unit.MethodAnnotationMetadata); m != nil {
		v, err := l.run(d, m)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}
		d.classMetadata = As[model.AnnotationMetadata](v)
	}
	if m := u.Method(unit.MethodRequiresMethodProcessing); m != nil {
		v, err := l.run(d, m)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", name, err)
		}
		d.requiresMethodProcessing = As[bool](v)
	}
	return d, nil
}

func (l *Loader) newObject(t model.TypeRef, params []model.TypeRef, args []any) (any, error) {
	if u, ok := l.Unit(t.String()); ok && u.Kind == unit.KindExecutableMethod {
		e := &ExecutableMethod{loader: l, unit: u}
		if _, err := l.run(e, u.Method(unit.MethodInit)); err != nil {
			return nil, err
		}
		return e, nil
	}
	c, err := l.class(t)
	if err != nil {
		return nil, err
	}
	ctor, ok := c.ctors[asm.Descriptor("", params)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchMethod, asm.Descriptor(t.String()+".<init>", params))
	}
	return ctor(args)
}

func (l *Loader) field(owner model.TypeRef, name string) (*Field, error) {
	c, err := l.class(owner)
	if err != nil {
		return nil, err
	}
	fd, ok := c.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchField, owner, name)
	}
	return fd, nil
}

func (l *Loader) getField(owner model.TypeRef, name string, recv any) (any, error) {
	if recv == nil {
		return nil, fmt.Errorf("%w: reading %s.%s", ErrNullReceiver, owner, name)
	}
	fd, err := l.field(owner, name)
	if err != nil {
		return nil, err
	}
	return fd.Get(recv), nil
}

func (l *Loader) putField(owner model.TypeRef, name string, recv, v any) error {
	if recv == nil {
		return fmt.Errorf("%w: writing %s.%s", ErrNullReceiver, owner, name)
	}
	fd, err := l.field(owner, name)
	if err != nil {
		return err
	}
	fd.Set(recv, v)
	return nil
}

func (l *Loader) getStatic(owner model.TypeRef, name string) (any, error) {
	if owner == model.TypeTimeUnit && name == unit.StaticMilliseconds {
		return Milliseconds, nil
	}
	return nil, fmt.Errorf("%w: static %s.%s", ErrNoSuchField, owner, name)
}

func (l *Loader) invokeStatic(owner model.TypeRef, name string, params []model.TypeRef, args []any) (any, error) {
	switch {
	case owner == model.TypeArgument && name == unit.ArgumentOf.Name:
		return &Argument{Type: As[model.TypeRef](args[0]), Name: As[string](args[1])}, nil
	case owner == model.TypeArgument && name == unit.ArgumentOfGenerics.Name:
		return &Argument{Type: As[model.TypeRef](args[0]), Name: As[string](args[1]), TypeParameters: arguments(args[2])}, nil
	case owner == model.TypeArgument && name == unit.ArgumentOfAnnotated.Name:
		a := &Argument{
			Type:           As[model.TypeRef](args[0]),
			Name:           As[string](args[1]),
			Metadata:       As[model.AnnotationMetadata](args[3]),
			TypeParameters: arguments(args[4]),
		}
		if q, ok := args[2].(model.TypeRef); ok {
			a.Qualifier = &q
		}
		return a, nil
	case owner == model.TypeAnnotationMetadata && name == unit.MetadataFromTriples.Name:
		return model.MetadataFromTriples(strs(args[0]))
	}
	c, err := l.class(owner)
	if err != nil {
		return nil, err
	}
	fn, ok := c.statics[asm.Descriptor(name, params)]
	if !ok {
		return nil, fmt.Errorf("%w: static %s.%s", ErrNoSuchMethod, owner, asm.Descriptor(name, params))
	}
	return fn(args)
}

func (l *Loader) invokeVirtual(owner model.TypeRef, name string, params []model.TypeRef, recv any, args []any) (any, error) {
	if recv == nil {
		return nil, fmt.Errorf("%w: calling %s.%s", ErrNullReceiver, owner, name)
	}
	switch r := recv.(type) {
	case *Definition:
		if owner == r.unit.Type() {
			return r.call(name, args...)
		}
	case Optional:
		switch name {
		case unit.OptionalIsPresent.Name:
			return r.IsPresent(), nil
		case unit.OptionalGet.Name:
			return r.Get(), nil
		}
	case time.Duration:
		if name == unit.DurationMilliseconds.Name {
			return r.Milliseconds(), nil
		}
	case Args:
		if name == unit.ArgsGet.Name {
			return r[As[string](args[0])], nil
		}
	case Container:
		if owner == model.TypeContainer && name == unit.ContainerGetBean.Name {
			return r.GetBean(As[*ResolutionContext](args[0]), As[model.TypeRef](args[1]), nil)
		}
	}
	c, err := l.class(owner)
	if err != nil {
		return nil, err
	}
	fn, ok := c.methods[asm.Descriptor(name, params)]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, owner, asm.Descriptor(name, params))
	}
	return fn(recv, args)
}

func arguments(v any) []*Argument {
	arr, _ := v.([]any)
	if arr == nil {
		return nil
	}
	out := make([]*Argument, len(arr))
	for i, a := range arr {
		out[i] = As[*Argument](a)
	}
	return out
}

func strs(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, len(arr))
	for i, s := range arr {
		out[i] = As[string](s)
	}
	return out
}
