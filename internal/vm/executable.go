package vm

import (
	"fmt"

	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// ExecutableMethod is a loaded executable-method unit.
type ExecutableMethod struct {
	loader *Loader
	unit   *unit.Unit

	DeclaringType model.TypeRef
	Name          string
	ReturnType    *Argument
	Arguments     []*Argument
	Metadata      model.AnnotationMetadata
}

func (e *ExecutableMethod) Unit() *unit.Unit { return e.unit }

// Invoke calls the wrapped method on target.
func (e *ExecutableMethod) Invoke(target any, args ...any) (any, error) {
	if len(args) != len(e.Arguments) {
		return nil, fmt.Errorf("invoke %s.%s: want %d arguments, got %d", e.DeclaringType, e.Name, len(e.Arguments), len(args))
	}
	m := e.unit.Method(unit.MethodInvoke)
	if m == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, e.unit.Name, unit.MethodInvoke)
	}
	arr := make([]any, len(args))
	copy(arr, args)
	return e.loader.run(e, m, target, arr)
}

func (e *ExecutableMethod) invokeSuper(name string, args []any) (any, error) {
	if name != unit.InitExecutableMethod.Name {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, e.unit.SuperType, name)
	}
	e.DeclaringType = As[model.TypeRef](args[0])
	e.Name = As[string](args[1])
	e.ReturnType = As[*Argument](args[2])
	e.Arguments = arguments(args[3])
	e.Metadata = As[model.AnnotationMetadata](args[4])
	return nil, nil
}
