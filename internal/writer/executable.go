package writer

import (
	"fmt"
	"log/slog"

	"github.com/cmmoran/beandefgen/internal/argument"
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// ExecutableMethod describes a method exposed for invocation outside
// injection.
type ExecutableMethod struct {
	DeclaringType  model.TypeRef
	Name           string
	ReturnType     model.TypeRef
	ReturnGenerics []model.Generic
	Arguments      []model.Argument
	Metadata       model.AnnotationMetadata
}

// ExecutableMethodWriter holds the secondary unit wrapping one method.
type ExecutableMethodWriter struct {
	name   string
	method ExecutableMethod
	unit   *unit.Unit
}

func (e *ExecutableMethodWriter) Name() string { return e.name }

func (e *ExecutableMethodWriter) Unit() *unit.Unit { return e.unit }

func (e *ExecutableMethodWriter) Method() ExecutableMethod { return e.method }

// VisitExecutableMethod builds the secondary unit for m and registers it
// with the definition. The unit is written along with the definition.
func (w *Writer) VisitExecutableMethod(m ExecutableMethod) (*ExecutableMethodWriter, error) {
	const op = "VisitExecutableMethod"
	if err := w.requireDeclared(op); err != nil {
		return nil, err
	}
	m.DeclaringType = w.declaring(m.DeclaringType)
	if m.ReturnType.IsZero() {
		m.ReturnType = model.Void
	}
	name := fmt.Sprintf("%s$exec%d", w.name, w.execCounter+1)
	e, err := newExecutableMethodWriter(name, w.dispatchOn(m.DeclaringType), m)
	if err != nil {
		return nil, fmt.Errorf("%s %s.%s: %w", op, w.name, m.Name, err)
	}
	w.execCounter++

	c := w.constructor
	c.Load(slotThis)
	c.New(unit.TypeOf(name), nil)
	unit.AddExecutableMethod.Emit(c, asm.InvokeSuper, w.superType)

	w.executables = append(w.executables, e)
	w.log.Debug("executable method visited", slog.String("method", m.Name), slog.String("unit", name))
	return e, nil
}

// ExecutableMethods lists the secondary writers in visit order.
func (w *Writer) ExecutableMethods() []*ExecutableMethodWriter { return w.executables }

func newExecutableMethodWriter(name string, dispatch asm.InvokeKind, m ExecutableMethod) (*ExecutableMethodWriter, error) {
	if err := validateArguments(m.Arguments); err != nil {
		return nil, err
	}
	if err := model.ValidateGenerics("return", m.ReturnGenerics); err != nil {
		return nil, err
	}

	ctor := asm.NewBody(unit.MethodInit, 1)
	ctor.Load(slotThis)
	ctor.PushType(m.DeclaringType)
	ctor.PushString(m.Name)
	if err := argument.PushArgumentWithGenerics(ctor, "return", m.ReturnType, m.ReturnGenerics); err != nil {
		return nil, err
	}
	if err := pushArgumentsOrNull(ctor, m.Arguments); err != nil {
		return nil, err
	}
	argument.PushAnnotationMetadata(ctor, m.Metadata)
	unit.InitExecutableMethod.Emit(ctor, asm.InvokeSuper, model.TypeAbstractExecutableMethod)
	ctor.Return()

	// slot 1 = target, slot 2 = argument array
	inv := asm.NewBody(unit.MethodInvoke, 3)
	inv.Load(1)
	inv.CheckCast(m.DeclaringType)
	params := model.Types(m.Arguments)
	for i, p := range params {
		inv.Load(2)
		inv.PushInt(i)
		inv.ArrayLoad()
		inv.CheckCast(p)
	}
	inv.Invoke(dispatch, m.DeclaringType, m.Name, params, m.ReturnType)
	if m.ReturnType.IsVoid() {
		inv.PushNull()
	}
	inv.ReturnValue()

	for _, b := range []*asm.Body{ctor, inv} {
		if err := asm.Verify(b); err != nil {
			return nil, err
		}
	}

	return &ExecutableMethodWriter{
		name:   name,
		method: m,
		unit: &unit.Unit{
			Name:       name,
			Kind:       unit.KindExecutableMethod,
			SuperType:  model.TypeAbstractExecutableMethod,
			Interfaces: []model.TypeRef{model.TypeExecutableMethod},
			BeanType:   m.DeclaringType,
			Methods: []*unit.Method{
				{Name: unit.MethodInit, Returns: model.Void, Body: ctor},
				{Name: unit.MethodInvoke, Params: []model.TypeRef{model.Any, model.Any.ArrayOf()}, Returns: model.Any, Body: inv},
			},
		},
	}, nil
}

// WriteTo encodes the unit into its own sink entry.
func (e *ExecutableMethodWriter) WriteTo(s Sink) (err error) {
	data, err := unit.Encode(e.unit)
	if err != nil {
		return err
	}
	out, err := s.Open(e.name)
	if err != nil {
		return &SinkError{Unit: e.name, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &SinkError{Unit: e.name, Err: cerr}
		}
	}()
	if _, err := out.Write(data); err != nil {
		return &SinkError{Unit: e.name, Err: err}
	}
	return nil
}
