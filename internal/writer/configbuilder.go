package writer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmmoran/beandefgen/internal/argument"
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// ConfigBuilder names the delegate configured by the properties that follow.
type ConfigBuilder struct {
	Type      model.TypeRef
	Accessor  string // field name, or accessor method name when ViaMethod
	ViaMethod bool
	Metadata  model.AnnotationMetadata
}

// ConfigBuilderMethod is one delegate method fed from a property. A nil
// ParamType declares a zero-argument flag method.
type ConfigBuilderMethod struct {
	Prefix              string // stripped from MethodName to form the property
	ConfigurationPrefix string // leading path segment, optional
	ReturnType          model.TypeRef
	MethodName          string
	ParamType           *model.TypeRef
	Generics            []model.Generic
	Duration            bool // pass (milliseconds, TimeUnit.Milliseconds)
}

// Property is the metadata of one configuration property a builder reads.
type Property struct {
	Path    string // dotted configuration path
	Type    model.TypeRef
	Builder model.TypeRef
	Method  string
}

type configBuilderState struct {
	ConfigBuilder
	properties int
}

// BeginConfigBuilder opens a builder. Builders do not nest.
func (w *Writer) BeginConfigBuilder(cb ConfigBuilder) error {
	const op = "BeginConfigBuilder"
	if w.phase == PhaseConfigBuilder {
		return w.illegal(op, "configuration builders cannot be nested")
	}
	if err := w.requireDeclared(op); err != nil {
		return err
	}

	if factory, ok := cb.Metadata.Value(model.AnnotationConfigurationBuilder, model.MemberFactoryMethod); ok && factory != "" && !cb.ViaMethod {
		b := w.inject
		b.Load(w.injectInstance)
		b.Invoke(asm.InvokeStatic, cb.Type, factory, nil, cb.Type)
		b.PutField(w.beanType, cb.Accessor, cb.Type)
	}

	w.builder = &configBuilderState{ConfigBuilder: cb}
	w.phase = PhaseConfigBuilder
	w.log.Debug("configuration builder opened", slog.String("type", cb.Type.String()), slog.String("accessor", cb.Accessor))
	return nil
}

// VisitConfigBuilderMethod emits one guarded property read feeding the
// delegate. A delegate lacking the method at load time is warned about and
// skipped.
func (w *Writer) VisitConfigBuilderMethod(m ConfigBuilderMethod) error {
	const op = "VisitConfigBuilderMethod"
	if w.phase != PhaseConfigBuilder {
		return w.illegal(op, "no configuration builder is open")
	}
	prop := decapitalize(strings.TrimPrefix(m.MethodName, m.Prefix))
	if prop == "" {
		return fmt.Errorf("%s %s: %w: method %q has nothing after prefix %q", op, w.name, ErrInvalidInput, m.MethodName, m.Prefix)
	}
	zeroArgs := m.ParamType == nil && !m.Duration
	paramType := model.Bool
	switch {
	case m.Duration:
		paramType = model.Duration
	case m.ParamType != nil:
		paramType = *m.ParamType
	}
	if err := model.ValidateGenerics(prop, m.Generics); err != nil {
		return fmt.Errorf("%s %s: %w", op, w.name, err)
	}

	path := []string{prop}
	if m.ConfigurationPrefix != "" {
		path = []string{m.ConfigurationPrefix, prop}
	}

	cb := w.builder
	b := w.inject
	ifEnd := b.NewLabel()

	pushResolverArgs(b)
	if zeroArgs {
		argument.PushArgument(b, prop, model.Bool)
	} else if err := argument.PushArgumentWithGenerics(b, prop, paramType, m.Generics); err != nil {
		return fmt.Errorf("%s %s: %w", op, w.name, err)
	}
	argument.PushStringArray(b, path)
	unit.ResolveValueForPath.Emit(b, asm.InvokeSuper, w.superType)
	b.Store(w.optionalSlot)
	b.Load(w.optionalSlot)
	unit.OptionalIsPresent.Emit(b, asm.InvokeVirtual, model.TypeOptional)
	b.IfFalse(ifEnd)

	if zeroArgs {
		b.Load(w.optionalSlot)
		unit.OptionalGet.Emit(b, asm.InvokeVirtual, model.TypeOptional)
		b.CheckCast(model.Bool)
		b.IfFalse(ifEnd)
	}

	tryStart, tryBodyEnd, handler, tryEnd := b.NewLabel(), b.NewLabel(), b.NewLabel(), b.NewLabel()
	b.Mark(tryStart)
	b.Load(w.injectInstance)
	if cb.ViaMethod {
		b.Invoke(w.dispatchOn(w.beanType), w.beanType, cb.Accessor, nil, cb.Type)
	} else {
		b.GetField(w.beanType, cb.Accessor, cb.Type)
	}

	var params []model.TypeRef
	switch {
	case zeroArgs:
	case m.Duration:
		b.Load(w.optionalSlot)
		unit.OptionalGet.Emit(b, asm.InvokeVirtual, model.TypeOptional)
		b.CheckCast(model.Duration)
		unit.DurationMilliseconds.Emit(b, asm.InvokeVirtual, model.Duration)
		b.GetStatic(model.TypeTimeUnit, unit.StaticMilliseconds, model.TypeTimeUnit)
		params = []model.TypeRef{model.Int64, model.TypeTimeUnit}
	default:
		b.Load(w.optionalSlot)
		unit.OptionalGet.Emit(b, asm.InvokeVirtual, model.TypeOptional)
		b.CheckCast(paramType)
		params = []model.TypeRef{paramType}
	}
	returns := m.ReturnType
	if returns.IsZero() {
		returns = model.Void
	}
	b.Invoke(asm.InvokeVirtual, cb.Type, m.MethodName, params, returns)
	if !returns.IsVoid() {
		b.Pop()
	}
	b.Mark(tryBodyEnd)
	b.Goto(tryEnd)

	b.Mark(handler)
	b.Pop()
	b.Load(slotThis)
	b.PushType(cb.Type)
	b.PushString(m.MethodName)
	b.PushString(prop)
	unit.WarnMissingProperty.Emit(b, asm.InvokeSuper, w.superType)
	b.Mark(tryEnd)
	b.TryCatch(tryStart, tryBodyEnd, handler, asm.CatchNoSuchMethod)
	b.Mark(ifEnd)

	cb.properties++
	w.properties = append(w.properties, Property{
		Path:    strings.Join(path, "."),
		Type:    paramType,
		Builder: cb.Type,
		Method:  m.MethodName,
	})
	w.log.Debug("configuration builder property", slog.String("property", prop), slog.String("method", m.MethodName))
	return nil
}

// EndConfigBuilder closes the open builder.
func (w *Writer) EndConfigBuilder() error {
	if w.phase != PhaseConfigBuilder {
		return w.illegal("EndConfigBuilder", "no configuration builder is open")
	}
	w.log.Debug("configuration builder closed", slog.Int("properties", w.builder.properties))
	w.builder = nil
	w.phase = PhaseDeclared
	return nil
}
