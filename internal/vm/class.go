package vm

import (
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
)

// Class describes a Go type to the interpreter: how to construct it, which
// fields it exposes and which methods it has, keyed by descriptor.
type Class struct {
	Type    model.TypeRef
	ctors   map[string]func(args []any) (any, error)
	fields  map[string]*Field
	methods map[string]func(recv any, args []any) (any, error)
	statics map[string]func(args []any) (any, error)
}

type Field struct {
	Type model.TypeRef
	Get  func(obj any) any
	Set  func(obj, v any)
}

func NewClass(t model.TypeRef) *Class {
	return &Class{
		Type:    t,
		ctors:   map[string]func([]any) (any, error){},
		fields:  map[string]*Field{},
		methods: map[string]func(any, []any) (any, error){},
		statics: map[string]func([]any) (any, error){},
	}
}

func (c *Class) Constructor(params []model.TypeRef, fn func(args []any) (any, error)) *Class {
	c.ctors[asm.Descriptor("", params)] = fn
	return c
}

func (c *Class) Field(name string, t model.TypeRef, get func(obj any) any, set func(obj, v any)) *Class {
	c.fields[name] = &Field{Type: t, Get: get, Set: set}
	return c
}

func (c *Class) Method(name string, params []model.TypeRef, fn func(recv any, args []any) (any, error)) *Class {
	c.methods[asm.Descriptor(name, params)] = fn
	return c
}

func (c *Class) Static(name string, params []model.TypeRef, fn func(args []any) (any, error)) *Class {
	c.statics[asm.Descriptor(name, params)] = fn
	return c
}

// HasMethod reports whether a method with this descriptor is registered.
func (c *Class) HasMethod(name string, params []model.TypeRef) bool {
	_, ok := c.methods[asm.Descriptor(name, params)]
	return ok
}

// Set adapts a typed field writer. A nil value writes V's zero value.
func Set[T, V any](set func(*T, V)) func(obj, v any) {
	return func(obj, v any) { set(obj.(*T), As[V](v)) }
}

// Get adapts a typed field reader.
func Get[T, V any](get func(*T) V) func(obj any) any {
	return func(obj any) any { return get(obj.(*T)) }
}

// As converts v to V, mapping nil to the zero value.
func As[V any](v any) V {
	if v == nil {
		var zero V
		return zero
	}
	return v.(V)
}
