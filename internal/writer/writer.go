// Package writer compiles one bean description into a loadable unit. A
// Writer is driven through an ordered visitor protocol: declare the entry
// point, visit injection points, finalize, then write to a sink.
//
// A Writer is not safe for concurrent use. Independent writers share no
// mutable state and may run in parallel.
package writer

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/cmmoran/beandefgen/internal/argument"
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// Calling convention shared with the runtime.
const (
	slotThis      = 0
	slotContext   = 1
	slotContainer = 2
	slotInstance  = 3
	reservedSlots = 4
)

type Writer struct {
	log *slog.Logger

	name     string
	beanType model.TypeRef
	metadata model.AnnotationMetadata
	iface    bool

	phase Phase
	entry entryKind

	superType   model.TypeRef
	customSuper bool
	interfaces  []model.TypeRef

	constructor   *asm.Body
	build         *asm.Body
	inject        *asm.Body
	postConstruct *asm.Body
	preDestroy    *asm.Body

	argsSlot              int
	buildInstance         int
	injectInstance        int
	optionalSlot          int
	postConstructInstance int
	preDestroyInstance    int
	injectEnd             asm.Label
	guardsProperties      bool

	indices indexAllocator
	points  []InjectionPoint

	builder    *configBuilderState
	properties []Property

	executables []*ExecutableMethodWriter
	execCounter int

	requiresMethodProcessing bool

	unit *unit.Unit
}

type Option func(*Writer)

func WithLogger(l *slog.Logger) Option { return func(w *Writer) { w.log = l } }

// WithSuffix replaces the default "Definition" suffix of the unit name.
func WithSuffix(s string) Option {
	return func(w *Writer) { w.name = definitionName(w.beanType, s) }
}

// WithName sets the full unit name.
func WithName(name string) Option { return func(w *Writer) { w.name = name } }

// WithInterface marks the bean type as an interface, so generated calls on
// it dispatch through the interface.
func WithInterface() Option { return func(w *Writer) { w.iface = true } }

// New starts an empty writer for beanType. metadata is the class-level
// annotation metadata.
func New(beanType model.TypeRef, metadata model.AnnotationMetadata, opts ...Option) *Writer {
	w := &Writer{
		log:        slog.Default(),
		beanType:   beanType,
		metadata:   metadata,
		name:       definitionName(beanType, unit.DefinitionSuffix),
		superType:  model.TypeAbstractDefinition,
		interfaces: []model.TypeRef{model.TypeFactory},
		argsSlot:   -1,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With(slog.String("definition", w.name))
	return w
}

func definitionName(t model.TypeRef, suffix string) string {
	simple := "$" + t.Name + suffix
	if t.PkgPath == "" {
		return simple
	}
	return t.PkgPath + "." + simple
}

// Name is the primary unit name.
func (w *Writer) Name() string { return w.name }

func (w *Writer) BeanType() model.TypeRef { return w.beanType }

func (w *Writer) Phase() Phase { return w.phase }

// Type is the primary unit's own type.
func (w *Writer) Type() model.TypeRef { return unit.TypeOf(w.name) }

// Points lists visited injection points in call order.
func (w *Writer) Points() []InjectionPoint { return w.points }

// Properties lists the configuration properties read by builders, in visit
// order.
func (w *Writer) Properties() []Property { return w.properties }

// Body returns the body under construction with the given method name, or
// nil when it has not been opened.
func (w *Writer) Body(name string) *asm.Body {
	for _, b := range []*asm.Body{w.constructor, w.build, w.inject, w.postConstruct, w.preDestroy} {
		if b != nil && b.Name == name {
			return b
		}
	}
	return nil
}

// Unit returns the sealed primary unit, or nil before Finalize.
func (w *Writer) Unit() *unit.Unit { return w.unit }

// Units returns every sealed unit, secondaries first.
func (w *Writer) Units() []*unit.Unit {
	if w.unit == nil {
		return nil
	}
	out := make([]*unit.Unit, 0, len(w.executables)+1)
	for _, e := range w.executables {
		out = append(out, e.unit)
	}
	return append(out, w.unit)
}

func (w *Writer) illegal(op, reason string) error {
	return &StateError{Op: op, Phase: w.phase, Reason: reason}
}

func (w *Writer) requireDeclared(op string) error {
	switch w.phase {
	case PhaseDeclared:
		return nil
	case PhaseEmpty:
		return w.illegal(op, "no constructor or factory method declared")
	case PhaseConfigBuilder:
		return w.illegal(op, "a configuration builder is open")
	}
	return w.illegal(op, "")
}

func (w *Writer) requireEntryOpen(op string) error {
	switch w.phase {
	case PhaseFinalized, PhaseConfigBuilder:
		return w.illegal(op, "")
	}
	return nil
}

// DeclareConstructor declares construction through the bean's constructor.
// A repeated call is a no-op.
func (w *Writer) DeclareConstructor(md model.AnnotationMetadata, requiresReflection bool, args []model.Argument) error {
	const op = "DeclareConstructor"
	if err := w.requireEntryOpen(op); err != nil {
		return err
	}
	switch w.entry {
	case entryConstructor:
		w.log.Debug("constructor already declared")
		return nil
	case entryFactory:
		return w.illegal(op, "only one entry point permitted")
	}

	parametrized := false
	for _, a := range args {
		parametrized = parametrized || isParameter(a.Metadata)
	}
	superType := w.superType
	if parametrized && !w.customSuper {
		superType = model.TypeParametrizedDefinition
	}

	ctor := asm.NewBody(unit.MethodInit, 1)
	ctor.Load(slotThis)
	ctor.PushType(w.beanType)
	argument.PushAnnotationMetadata(ctor, md)
	ctor.PushBool(requiresReflection)
	if err := pushArgumentsOrNull(ctor, args); err != nil {
		return fmt.Errorf("%s %s: %w", op, w.name, err)
	}
	unit.InitDefinition.Emit(ctor, asm.InvokeSuper, superType)

	w.superType = superType
	if parametrized {
		w.interfaces[0] = model.TypeParametrizedFactory
	}
	w.constructor = ctor
	w.build = w.openBuild(parametrized)
	w.pushConstructorArguments(w.build, args)
	w.build.New(w.beanType, model.Types(args))
	w.finishBuild()
	w.openInject()

	w.entry = entryConstructor
	w.phase = PhaseDeclared
	w.log.Debug("constructor declared", slog.Int("arguments", len(args)), slog.Bool("parametrized", parametrized))
	return nil
}

// DeclareFactoryMethod declares construction through method on the factory
// bean of type factory.
func (w *Writer) DeclareFactoryMethod(factory model.TypeRef, method string, md model.AnnotationMetadata, args []model.Argument) error {
	const op = "DeclareFactoryMethod"
	if err := w.requireEntryOpen(op); err != nil {
		return err
	}
	if w.entry != entryNone {
		return w.illegal(op, "only one entry point permitted")
	}

	ctor := asm.NewBody(unit.MethodInit, 1)
	ctor.Load(slotThis)
	ctor.PushType(w.beanType)
	ctor.PushType(factory)
	ctor.PushString(method)
	argument.PushAnnotationMetadata(ctor, md)
	if err := pushArgumentsOrNull(ctor, args); err != nil {
		return fmt.Errorf("%s %s: %w", op, w.name, err)
	}
	unit.InitFactory.Emit(ctor, asm.InvokeSuper, w.superType)

	w.constructor = ctor
	b := w.openBuild(false)
	b.Load(slotContainer)
	b.Load(slotContext)
	b.PushType(factory)
	unit.ContainerGetBean.Emit(b, asm.InvokeInterface, model.TypeContainer)
	factorySlot := b.StoreNewLocal()
	b.Load(factorySlot)
	b.CheckCast(factory)
	w.build = b
	w.pushConstructorArguments(b, args)
	b.Invoke(asm.InvokeVirtual, factory, method, model.Types(args), w.beanType)
	w.finishBuild()
	w.openInject()

	w.entry = entryFactory
	w.phase = PhaseDeclared
	w.log.Debug("factory method declared", slog.String("factory", factory.String()), slog.String("method", method))
	return nil
}

func pushArgumentsOrNull(b *asm.Body, args []model.Argument) error {
	if len(args) == 0 {
		b.PushNull()
		return nil
	}
	return argument.PushArguments(b, args)
}

func (w *Writer) openBuild(parametrized bool) *asm.Body {
	if !parametrized {
		return asm.NewBody(unit.MethodBuild, reservedSlots)
	}
	b := asm.NewBody(unit.MethodDoBuild, reservedSlots)
	w.argsSlot = b.NewLocal()
	return b
}

// pushConstructorArguments resolves each argument in order. Parameter
// arguments of a parametrized definition come from the caller's map.
func (w *Writer) pushConstructorArguments(b *asm.Body, args []model.Argument) {
	for i, a := range args {
		if w.argsSlot >= 0 && isParameter(a.Metadata) {
			b.Load(w.argsSlot)
			b.PushString(a.Name)
			unit.ArgsGet.Emit(b, asm.InvokeInterface, model.TypeArgs)
		} else {
			pushResolverArgs(b)
			b.PushInt(i)
			resolve := unit.ResolveBeanForConstructorArgument
			if isValueLookup(a.Metadata) {
				resolve = unit.ResolveValueForConstructorArgument
			}
			resolve.Emit(b, asm.InvokeSuper, w.superType)
		}
		b.CheckCast(a.Type)
	}
}

// finishBuild stores the new instance and hands it to Inject.
func (w *Writer) finishBuild() {
	b := w.build
	w.buildInstance = b.StoreNewLocal()
	w.callHook(b, unit.HookInject, w.buildInstance)
}

func (w *Writer) callHook(b *asm.Body, hook unit.Signature, instance int) {
	pushResolverArgs(b)
	b.Load(instance)
	hook.Emit(b, asm.InvokeVirtual, w.Type())
	b.CheckCast(w.beanType)
	b.Store(instance)
}

func (w *Writer) openInject() {
	b := asm.NewBody(unit.MethodInject, reservedSlots)
	if w.metadata.HasStereotype(model.AnnotationConfigurationProperties) {
		w.injectEnd = b.NewLabel()
		w.guardsProperties = true
		pushResolverArgs(b)
		unit.ContainsProperties.Emit(b, asm.InvokeSuper, w.superType)
		b.IfFalse(w.injectEnd)
	}
	b.Load(slotInstance)
	b.CheckCast(w.beanType)
	w.injectInstance = b.StoreNewLocal()
	b.PushNull()
	w.optionalSlot = b.StoreNewLocal()
	w.inject = b
}

// SetRequiresMethodProcessing marks the definition as having methods the
// runtime must process after loading.
func (w *Writer) SetRequiresMethodProcessing(v bool) error {
	if w.phase == PhaseFinalized {
		return w.illegal("SetRequiresMethodProcessing", "")
	}
	w.requiresMethodProcessing = v
	return nil
}

// SetValidated adds or removes the marker interface telling the runtime to
// validate built instances.
func (w *Writer) SetValidated(v bool) error {
	if w.phase == PhaseFinalized {
		return w.illegal("SetValidated", "")
	}
	w.interfaces = slices.DeleteFunc(w.interfaces, func(t model.TypeRef) bool {
		return t == model.TypeValidatedDefinition
	})
	if v {
		w.interfaces = append(w.interfaces, model.TypeValidatedDefinition)
	}
	return nil
}

// AddInterface adds t to the primary unit's interfaces. Repeats are ignored.
func (w *Writer) AddInterface(t model.TypeRef) error {
	const op = "AddInterface"
	if w.phase == PhaseFinalized {
		return w.illegal(op, "")
	}
	if t.IsZero() {
		return fmt.Errorf("%s %s: %w: empty interface type", op, w.name, ErrInvalidInput)
	}
	if !slices.Contains(w.interfaces, t) {
		w.interfaces = append(w.interfaces, t)
	}
	return nil
}

// SetSuperType replaces the runtime base type every super call targets. A
// custom base is kept even when the constructor is parametrized.
func (w *Writer) SetSuperType(t model.TypeRef) error {
	const op = "SetSuperType"
	if w.phase != PhaseEmpty {
		return w.illegal(op, "the super type must be set before the entry point")
	}
	if t.IsZero() {
		return fmt.Errorf("%s %s: %w: empty super type", op, w.name, ErrInvalidInput)
	}
	w.superType = t
	w.customSuper = true
	return nil
}

func (w *Writer) dispatchOn(t model.TypeRef) asm.InvokeKind {
	if w.iface && t == w.beanType {
		return asm.InvokeInterface
	}
	return asm.InvokeVirtual
}

func (w *Writer) declaring(t model.TypeRef) model.TypeRef {
	if t.IsZero() {
		return w.beanType
	}
	return t
}
