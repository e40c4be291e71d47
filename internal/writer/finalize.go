package writer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/cmmoran/beandefgen/internal/argument"
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// Sink stores encoded units by name.
type Sink interface {
	Open(name string) (io.WriteCloser, error)
}

var lifecycleParams = []model.TypeRef{model.TypeResolutionContext, model.TypeContainer, model.Any}

// Finalize closes every body in the order constructor, build, inject,
// post-construct, pre-destroy and seals the primary unit.
func (w *Writer) Finalize() error {
	const op = "Finalize"
	switch w.phase {
	case PhaseEmpty:
		return w.illegal(op, "at least one call to DeclareConstructor or DeclareFactoryMethod is required")
	case PhaseConfigBuilder:
		return w.illegal(op, "a configuration builder is open")
	case PhaseFinalized:
		return w.illegal(op, "already finalized")
	}

	w.constructor.Return()

	w.build.Load(w.buildInstance)
	w.build.ReturnValue()

	if w.guardsProperties {
		w.inject.Mark(w.injectEnd)
	}
	pushResolverArgs(w.inject)
	w.inject.Load(slotInstance)
	unit.SuperInject.Emit(w.inject, asm.InvokeSuper, w.superType)
	w.inject.ReturnValue()

	if w.postConstruct != nil {
		w.postConstruct.Load(w.postConstructInstance)
		w.postConstruct.ReturnValue()
	}
	if w.preDestroy != nil {
		w.preDestroy.Load(w.preDestroyInstance)
		w.preDestroy.ReturnValue()
	}

	buildParams := []model.TypeRef{model.TypeResolutionContext, model.TypeContainer, model.TypeDefinition}
	if w.argsSlot >= 0 {
		buildParams = append(buildParams, model.TypeArgs)
	}
	methods := []*unit.Method{
		{Name: unit.MethodInit, Returns: model.Void, Body: w.constructor},
		{Name: w.build.Name, Params: buildParams, Returns: model.Any, Body: w.build},
		{Name: unit.MethodInject, Params: lifecycleParams, Returns: model.Any, Body: w.inject},
	}
	if w.postConstruct != nil {
		methods = append(methods, &unit.Method{Name: unit.MethodInitialize, Params: lifecycleParams, Returns: model.Any, Body: w.postConstruct})
	}
	if w.preDestroy != nil {
		methods = append(methods, &unit.Method{Name: unit.MethodDispose, Params: lifecycleParams, Returns: model.Any, Body: w.preDestroy})
	}
	if !w.metadata.IsEmpty() {
		b := asm.NewBody(unit.MethodAnnotationMetadata, 1)
		argument.PushAnnotationMetadata(b, w.metadata)
		b.ReturnValue()
		methods = append(methods, &unit.Method{Name: unit.MethodAnnotationMetadata, Returns: model.TypeAnnotationMetadata, Body: b})
	}
	if w.requiresMethodProcessing {
		b := asm.NewBody(unit.MethodRequiresMethodProcessing, 1)
		b.PushBool(true)
		b.ReturnValue()
		methods = append(methods, &unit.Method{Name: unit.MethodRequiresMethodProcessing, Returns: model.Bool, Body: b})
	}

	for _, m := range methods {
		if err := asm.Verify(m.Body); err != nil {
			return fmt.Errorf("%s %s: %w", op, w.name, err)
		}
	}

	w.unit = &unit.Unit{
		Name:       w.name,
		Kind:       unit.KindDefinition,
		SuperType:  w.superType,
		Interfaces: append([]model.TypeRef(nil), w.interfaces...),
		BeanType:   w.beanType,
		Methods:    methods,
	}
	w.phase = PhaseFinalized
	w.log.Debug("definition finalized",
		slog.Int("fields", w.indices.Count(CategoryField)),
		slog.Int("methods", w.indices.Count(CategoryMethod)),
		slog.Int("executables", len(w.executables)))
	return nil
}

// WriteTo persists the executable method units, then the primary unit. The
// primary entry is only opened once every secondary is written, so a failed
// write leaves an earlier primary in the sink untouched. Secondaries already
// written are not removed when a later one fails.
func (w *Writer) WriteTo(s Sink) (err error) {
	if w.phase != PhaseFinalized {
		return fmt.Errorf("write %s: %w", w.name, ErrNotFinalized)
	}
	data, err := unit.Encode(w.unit)
	if err != nil {
		return err
	}

	for _, e := range w.executables {
		if err := e.WriteTo(s); err != nil {
			return err
		}
	}

	out, err := s.Open(w.name)
	if err != nil {
		return &SinkError{Unit: w.name, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = &SinkError{Unit: w.name, Err: cerr}
		}
	}()
	if _, err := out.Write(data); err != nil {
		return &SinkError{Unit: w.name, Err: err}
	}
	w.log.Info("definition written", slog.Int("units", len(w.executables)+1))
	return nil
}
