package writer

import (
	"fmt"
	"log/slog"

	"github.com/cmmoran/beandefgen/internal/argument"
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// VisitFieldInjection registers a field and emits its injection.
func (w *Writer) VisitFieldInjection(p FieldPoint) error {
	const op = "VisitFieldInjection"
	if err := w.requireDeclared(op); err != nil {
		return err
	}
	arg := p.argument()
	if err := arg.Validate(); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}

	declaring := w.declaring(p.DeclaringType)
	idx := w.indices.Next(CategoryField)
	strategy := strategyFor(p.RequiresReflection)

	c := w.constructor
	c.Load(slotThis)
	c.PushType(declaring)
	c.PushString(p.Name)
	if err := argument.PushAnnotatedArgument(c, arg); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}
	c.PushBool(p.RequiresReflection)
	c.PushBool(p.Value)
	c.PushBool(p.Optional)
	unit.AddFieldInjectionPoint.Emit(c, asm.InvokeSuper, w.superType)

	resolve := unit.ResolveBeanForField
	if p.Value {
		resolve = unit.ResolveValueForField
	}
	w.guarded(p.Optional, func(b *asm.Body) {
		pushResolverArgs(b)
		b.PushInt(idx)
		unit.ContainsValueForField.Emit(b, asm.InvokeSuper, w.superType)
	}, func(b *asm.Body) {
		strategy.field(b, fieldAccess{
			super:     w.superType,
			declaring: declaring,
			name:      p.Name,
			typ:       p.Type,
			index:     idx,
			resolve:   resolve,
			instance:  w.injectInstance,
		})
	})

	w.record(InjectionPoint{Kind: model.KindField, Index: idx, Declaring: declaring, Name: p.Name, Strategy: strategy.Kind(), Optional: p.Optional, Value: p.Value})
	return nil
}

// VisitSetterInjection registers a setter and emits its invocation.
func (w *Writer) VisitSetterInjection(p SetterPoint) error {
	const op = "VisitSetterInjection"
	if err := w.requireDeclared(op); err != nil {
		return err
	}
	arg := p.argument()
	if err := arg.Validate(); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}

	declaring := w.declaring(p.DeclaringType)
	idx := w.indices.Next(CategoryMethod)
	strategy := strategyFor(p.RequiresReflection)

	c := w.constructor
	c.Load(slotThis)
	c.PushType(declaring)
	c.PushString(p.Name)
	if err := argument.PushAnnotatedArgument(c, arg); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}
	c.PushBool(p.RequiresReflection)
	c.PushBool(p.Value)
	c.PushBool(p.Optional)
	unit.AddSetterInjectionPoint.Emit(c, asm.InvokeSuper, w.superType)

	resolve := unit.ResolveBeanForArgument
	if p.Value {
		resolve = unit.ResolveValueForArgument
	}
	w.guarded(p.Optional, func(b *asm.Body) {
		pushResolverArgs(b)
		b.PushInt(idx)
		b.PushInt(0)
		unit.ContainsValueForArgument.Emit(b, asm.InvokeSuper, w.superType)
	}, func(b *asm.Body) {
		strategy.method(b, methodAccess{
			super:     w.superType,
			declaring: declaring,
			dispatch:  w.dispatchOn(declaring),
			name:      p.Name,
			params:    []model.TypeRef{p.Type},
			returns:   model.Void,
			index:     idx,
			resolve:   []unit.Signature{resolve},
			instance:  w.injectInstance,
		})
	})

	w.record(InjectionPoint{Kind: model.KindSetter, Index: idx, Declaring: declaring, Name: p.Name, Strategy: strategy.Kind(), Optional: p.Optional, Value: p.Value})
	return nil
}

// guarded emits body, skipped at runtime when optional and cond leaves false.
func (w *Writer) guarded(optional bool, cond, body func(b *asm.Body)) {
	b := w.inject
	if !optional {
		body(b)
		return
	}
	skip := b.NewLabel()
	cond(b)
	b.IfFalse(skip)
	body(b)
	b.Mark(skip)
}

// VisitMethodInjection registers a method and emits its invocation with
// every argument resolved.
func (w *Writer) VisitMethodInjection(p MethodPoint) error {
	const op = "VisitMethodInjection"
	if err := w.requireDeclared(op); err != nil {
		return err
	}
	return w.visitMethod(op, model.KindMethod, p, unit.AddMethodInjectionPoint, w.inject, w.injectInstance)
}

// VisitPostConstruct registers a method run after injection. The first call
// makes the definition initializing.
func (w *Writer) VisitPostConstruct(p MethodPoint) error {
	const op = "VisitPostConstruct"
	if err := w.requireDeclared(op); err != nil {
		return err
	}
	if err := validateArguments(p.Arguments); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}
	if w.postConstruct == nil {
		w.postConstruct, w.postConstructInstance = w.openLifecycle(unit.MethodInitialize, unit.SuperPostConstruct, model.TypeInitializingDefinition)
		w.callHook(w.build, unit.HookInitialize, w.buildInstance)
	}
	return w.visitMethod(op, model.KindPostConstruct, p, unit.AddPostConstruct, w.postConstruct, w.postConstructInstance)
}

// VisitPreDestroy registers a method run on disposal. The first call makes
// the definition disposable.
func (w *Writer) VisitPreDestroy(p MethodPoint) error {
	const op = "VisitPreDestroy"
	if err := w.requireDeclared(op); err != nil {
		return err
	}
	if err := validateArguments(p.Arguments); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}
	if w.preDestroy == nil {
		w.preDestroy, w.preDestroyInstance = w.openLifecycle(unit.MethodDispose, unit.SuperPreDestroy, model.TypeDisposableDefinition)
	}
	return w.visitMethod(op, model.KindPreDestroy, p, unit.AddPreDestroy, w.preDestroy, w.preDestroyInstance)
}

// openLifecycle starts a body whose first act is the super hook.
func (w *Writer) openLifecycle(name string, super unit.Signature, iface model.TypeRef) (*asm.Body, int) {
	b := asm.NewBody(name, reservedSlots)
	b.Load(slotInstance)
	b.CheckCast(w.beanType)
	instance := b.StoreNewLocal()
	pushResolverArgs(b)
	b.Load(slotInstance)
	super.Emit(b, asm.InvokeSuper, w.superType)
	b.Pop()
	w.interfaces = append(w.interfaces, iface)
	w.log.Debug("lifecycle body opened", slog.String("method", name))
	return b, instance
}

func validateArguments(args []model.Argument) error {
	for _, a := range args {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) visitMethod(op string, kind model.Kind, p MethodPoint, register unit.Signature, b *asm.Body, instance int) error {
	if err := validateArguments(p.Arguments); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}
	declaring := w.declaring(p.DeclaringType)
	idx := w.indices.Next(CategoryMethod)
	strategy := strategyFor(p.RequiresReflection)

	c := w.constructor
	c.Load(slotThis)
	c.PushType(declaring)
	c.PushString(p.Name)
	if err := pushArgumentsOrNull(c, p.Arguments); err != nil {
		return fmt.Errorf("%s %s.%s: %w", op, w.name, p.Name, err)
	}
	argument.PushAnnotationMetadata(c, p.Metadata)
	c.PushBool(p.RequiresReflection)
	register.Emit(c, asm.InvokeSuper, w.superType)

	resolve := make([]unit.Signature, len(p.Arguments))
	for i, a := range p.Arguments {
		resolve[i] = unit.ResolveBeanForArgument
		if isValueLookup(a.Metadata) {
			resolve[i] = unit.ResolveValueForArgument
		}
	}
	returns := p.ReturnType
	if returns.IsZero() {
		returns = model.Void
	}
	strategy.method(b, methodAccess{
		super:     w.superType,
		declaring: declaring,
		dispatch:  w.dispatchOn(declaring),
		name:      p.Name,
		params:    model.Types(p.Arguments),
		returns:   returns,
		index:     idx,
		resolve:   resolve,
		instance:  instance,
	})

	w.record(InjectionPoint{Kind: kind, Index: idx, Declaring: declaring, Name: p.Name, Strategy: strategy.Kind()})
	return nil
}

func (w *Writer) record(p InjectionPoint) {
	w.points = append(w.points, p)
	w.log.Debug("injection point visited",
		slog.String("kind", p.Kind.String()),
		slog.String("name", p.Name),
		slog.Int("index", p.Index),
		slog.String("strategy", p.Strategy.String()))
}
