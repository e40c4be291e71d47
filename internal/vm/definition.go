package vm

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// FieldInjectionPoint is a field registered by a definition's constructor.
type FieldInjectionPoint struct {
	Declaring          model.TypeRef
	Name               string
	Argument           *Argument
	RequiresReflection bool
	Value              bool
	Optional           bool
}

// MethodInjectionPoint is a setter, injected method or lifecycle method.
// Value and Optional are only set for setters.
type MethodInjectionPoint struct {
	Kind               model.Kind
	Declaring          model.TypeRef
	Name               string
	Arguments          []*Argument
	Metadata           model.AnnotationMetadata
	RequiresReflection bool
	Value              bool
	Optional           bool
}

// FactoryMethod names the bean method that produces a factory-built bean.
type FactoryMethod struct {
	Type   model.TypeRef
	Method string
}

// Definition is a loaded definition unit plus the tables its constructor
// registered.
type Definition struct {
	loader *Loader
	unit   *unit.Unit
	log    *slog.Logger

	beanType                 model.TypeRef
	metadata                 model.AnnotationMetadata
	classMetadata            model.AnnotationMetadata
	requiresReflection       bool
	requiresMethodProcessing bool
	constructorArgs          []*Argument
	factory                  *FactoryMethod

	fields         []*FieldInjectionPoint
	methods        []*MethodInjectionPoint
	postConstructs []*MethodInjectionPoint
	preDestroys    []*MethodInjectionPoint
	executables    []*ExecutableMethod

	mu       sync.Mutex
	warnings []Warning
}

func (d *Definition) Name() string                                  { return d.unit.Name }
func (d *Definition) Unit() *unit.Unit                              { return d.unit }
func (d *Definition) BeanType() model.TypeRef                       { return d.beanType }
func (d *Definition) ConstructorArguments() []*Argument             { return d.constructorArgs }
func (d *Definition) Factory() *FactoryMethod                       { return d.factory }
func (d *Definition) Fields() []*FieldInjectionPoint                { return d.fields }
func (d *Definition) Methods() []*MethodInjectionPoint              { return d.methods }
func (d *Definition) PostConstructMethods() []*MethodInjectionPoint { return d.postConstructs }
func (d *Definition) PreDestroyMethods() []*MethodInjectionPoint    { return d.preDestroys }
func (d *Definition) ExecutableMethods() []*ExecutableMethod        { return d.executables }
func (d *Definition) RequiresReflection() bool                      { return d.requiresReflection }
func (d *Definition) RequiresMethodProcessing() bool                { return d.requiresMethodProcessing }
func (d *Definition) IsInitializing() bool                          { return d.unit.Implements(model.TypeInitializingDefinition) }
func (d *Definition) IsDisposable() bool                            { return d.unit.Implements(model.TypeDisposableDefinition) }
func (d *Definition) IsValidated() bool                             { return d.unit.Implements(model.TypeValidatedDefinition) }
func (d *Definition) IsParametrized() bool                          { return d.unit.Method(unit.MethodDoBuild) != nil }

// AnnotationMetadata is the class-level metadata compiled into the unit.
func (d *Definition) AnnotationMetadata() model.AnnotationMetadata { return d.classMetadata }

// Warnings lists configuration properties skipped because the delegate
// lacked the target method.
func (d *Definition) Warnings() []Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Warning(nil), d.warnings...)
}

// Build constructs and injects a new bean. args is only read by
// parametrized definitions.
func (d *Definition) Build(rc *ResolutionContext, c Container, args Args) (any, error) {
	if m := d.unit.Method(unit.MethodDoBuild); m != nil {
		if args == nil {
			args = Args{}
		}
		return d.loader.run(d, m, rc, c, d, args)
	}
	return d.call(unit.MethodBuild, rc, c, d)
}

func (d *Definition) Inject(rc *ResolutionContext, c Container, instance any) (any, error) {
	return d.call(unit.MethodInject, rc, c, instance)
}

// Initialize runs post-construct methods. Non-initializing definitions
// return instance unchanged.
func (d *Definition) Initialize(rc *ResolutionContext, c Container, instance any) (any, error) {
	if d.unit.Method(unit.MethodInitialize) == nil {
		return instance, nil
	}
	return d.call(unit.MethodInitialize, rc, c, instance)
}

// Dispose runs pre-destroy methods. Non-disposable definitions return
// instance unchanged.
func (d *Definition) Dispose(rc *ResolutionContext, c Container, instance any) (any, error) {
	if d.unit.Method(unit.MethodDispose) == nil {
		return instance, nil
	}
	return d.call(unit.MethodDispose, rc, c, instance)
}

func (d *Definition) call(name string, args ...any) (any, error) {
	m := d.unit.Method(name)
	if m == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, d.unit.Name, name)
	}
	return d.loader.run(d, m, args...)
}

func (d *Definition) configurationPrefix() string {
	md := d.classMetadata
	if md == nil {
		md = d.metadata
	}
	v, _ := md.Value(model.AnnotationConfigurationProperties, model.MemberValue)
	return v
}

// propertyKey is the key a value point reads: the Value annotation's key,
// else the name under the configuration prefix.
func (d *Definition) propertyKey(a *Argument) string {
	if key := a.Metadata.ValueKey(""); key != "" {
		return key
	}
	if prefix := d.configurationPrefix(); prefix != "" {
		return prefix + "." + a.Name
	}
	return a.Name
}

func (d *Definition) field(i any) (*FieldInjectionPoint, error) {
	idx := As[int](i)
	if idx < 0 || idx >= len(d.fields) {
		return nil, fmt.Errorf("%w: field index %d of %d", ErrBadInstruction, idx, len(d.fields))
	}
	return d.fields[idx], nil
}

func (d *Definition) method(i any) (*MethodInjectionPoint, error) {
	idx := As[int](i)
	if idx < 0 || idx >= len(d.methods) {
		return nil, fmt.Errorf("%w: method index %d of %d", ErrBadInstruction, idx, len(d.methods))
	}
	return d.methods[idx], nil
}

func (d *Definition) methodArgument(mi, ai any) (*MethodInjectionPoint, *Argument, error) {
	m, err := d.method(mi)
	if err != nil {
		return nil, nil, err
	}
	idx := As[int](ai)
	if idx < 0 || idx >= len(m.Arguments) {
		return nil, nil, fmt.Errorf("%w: argument index %d of %s", ErrBadInstruction, idx, m.Name)
	}
	return m, m.Arguments[idx], nil
}

func (d *Definition) resolveBean(rc *ResolutionContext, c Container, a *Argument, segment string) (any, error) {
	rc.enter(segment)
	defer rc.leave()
	v, err := c.GetBean(rc, a.Type, a.Qualifier)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rc.Path(), err)
	}
	return v, nil
}

func (d *Definition) resolveValue(rc *ResolutionContext, c Container, a *Argument, optional bool, segment string) (any, error) {
	key := d.propertyKey(a)
	v, ok, err := c.GetProperty(rc, key, a.Type)
	if err != nil {
		return nil, fmt.Errorf("resolve %s -> %s: %w", rc.Path(), segment, err)
	}
	if !ok {
		if optional {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve %s -> %s: %w: %s", rc.Path(), segment, ErrValueNotFound, key)
	}
	return v, nil
}

func (d *Definition) resolveArgument(rc *ResolutionContext, c Container, m *MethodInjectionPoint, a *Argument) (any, error) {
	segment := "method " + m.Name + " argument " + a.Name
	if m.Value || isValue(a.Metadata) {
		return d.resolveValue(rc, c, a, m.Optional, segment)
	}
	return d.resolveBean(rc, c, a, segment)
}

func isValue(md model.AnnotationMetadata) bool {
	return md.HasStereotype(model.AnnotationValue) || md.HasStereotype(model.AnnotationProperty)
}

func (d *Definition) invokeSuper(name string, args []any) (any, error) {
	switch name {
	case unit.InitDefinition.Name:
		d.beanType = As[model.TypeRef](args[0])
		d.metadata = As[model.AnnotationMetadata](args[1])
		d.requiresReflection = As[bool](args[2])
		d.constructorArgs = arguments(args[3])
		return nil, nil
	case unit.InitFactory.Name:
		d.beanType = As[model.TypeRef](args[0])
		d.factory = &FactoryMethod{Type: As[model.TypeRef](args[1]), Method: As[string](args[2])}
		d.metadata = As[model.AnnotationMetadata](args[3])
		d.constructorArgs = arguments(args[4])
		return nil, nil

	case unit.AddFieldInjectionPoint.Name:
		d.fields = append(d.fields, &FieldInjectionPoint{
			Declaring:          As[model.TypeRef](args[0]),
			Name:               As[string](args[1]),
			Argument:           As[*Argument](args[2]),
			RequiresReflection: As[bool](args[3]),
			Value:              As[bool](args[4]),
			Optional:           As[bool](args[5]),
		})
		return nil, nil
	case unit.AddSetterInjectionPoint.Name:
		d.methods = append(d.methods, &MethodInjectionPoint{
			Kind:               model.KindSetter,
			Declaring:          As[model.TypeRef](args[0]),
			Name:               As[string](args[1]),
			Arguments:          []*Argument{As[*Argument](args[2])},
			RequiresReflection: As[bool](args[3]),
			Value:              As[bool](args[4]),
			Optional:           As[bool](args[5]),
		})
		return nil, nil
	case unit.AddMethodInjectionPoint.Name, unit.AddPostConstruct.Name, unit.AddPreDestroy.Name:
		m := &MethodInjectionPoint{
			Kind:               model.KindMethod,
			Declaring:          As[model.TypeRef](args[0]),
			Name:               As[string](args[1]),
			Arguments:          arguments(args[2]),
			Metadata:           As[model.AnnotationMetadata](args[3]),
			RequiresReflection: As[bool](args[4]),
		}
		switch name {
		case unit.AddPostConstruct.Name:
			m.Kind = model.KindPostConstruct
			d.postConstructs = append(d.postConstructs, m)
		case unit.AddPreDestroy.Name:
			m.Kind = model.KindPreDestroy
			d.preDestroys = append(d.preDestroys, m)
		}
		d.methods = append(d.methods, m)
		return nil, nil
	case unit.AddExecutableMethod.Name:
		d.executables = append(d.executables, As[*ExecutableMethod](args[0]))
		return nil, nil

	case unit.ResolveBeanForField.Name, unit.ResolveValueForField.Name:
		rc, c := As[*ResolutionContext](args[0]), As[Container](args[1])
		f, err := d.field(args[2])
		if err != nil {
			return nil, err
		}
		if name == unit.ResolveValueForField.Name {
			return d.resolveValue(rc, c, f.Argument, f.Optional, "field "+f.Name)
		}
		return d.resolveBean(rc, c, f.Argument, "field "+f.Name)
	case unit.ContainsValueForField.Name:
		rc, c := As[*ResolutionContext](args[0]), As[Container](args[1])
		f, err := d.field(args[2])
		if err != nil {
			return nil, err
		}
		return d.contains(rc, c, f.Argument, f.Value), nil

	case unit.ResolveBeanForArgument.Name, unit.ResolveValueForArgument.Name:
		rc, c := As[*ResolutionContext](args[0]), As[Container](args[1])
		m, a, err := d.methodArgument(args[2], args[3])
		if err != nil {
			return nil, err
		}
		if name == unit.ResolveValueForArgument.Name {
			return d.resolveValue(rc, c, a, m.Optional, "method "+m.Name+" argument "+a.Name)
		}
		return d.resolveBean(rc, c, a, "method "+m.Name+" argument "+a.Name)
	case unit.ContainsValueForArgument.Name:
		rc, c := As[*ResolutionContext](args[0]), As[Container](args[1])
		m, a, err := d.methodArgument(args[2], args[3])
		if err != nil {
			return nil, err
		}
		return d.contains(rc, c, a, m.Value || isValue(a.Metadata)), nil

	case unit.ResolveBeanForConstructorArgument.Name, unit.ResolveValueForConstructorArgument.Name:
		rc, c := As[*ResolutionContext](args[0]), As[Container](args[1])
		idx := As[int](args[2])
		if idx < 0 || idx >= len(d.constructorArgs) {
			return nil, fmt.Errorf("%w: constructor argument %d of %d", ErrBadInstruction, idx, len(d.constructorArgs))
		}
		a := d.constructorArgs[idx]
		if name == unit.ResolveValueForConstructorArgument.Name {
			return d.resolveValue(rc, c, a, false, "constructor argument "+a.Name)
		}
		return d.resolveBean(rc, c, a, "constructor argument "+a.Name)

	case unit.InjectBeanField.Name:
		return nil, d.injectField(As[*ResolutionContext](args[0]), As[Container](args[1]), args[2], args[3])
	case unit.InjectBeanMethod.Name:
		return nil, d.injectMethod(As[*ResolutionContext](args[0]), As[Container](args[1]), args[2], args[3])

	case unit.ResolveValueForPath.Name:
		rc, c := As[*ResolutionContext](args[0]), As[Container](args[1])
		a := As[*Argument](args[2])
		key := strings.Join(strs(args[3]), ".")
		if prefix := d.configurationPrefix(); prefix != "" {
			key = prefix + "." + key
		}
		v, ok, err := c.GetProperty(rc, key, a.Type)
		if err != nil {
			return nil, fmt.Errorf("resolve %s -> property %s: %w", rc.Path(), key, err)
		}
		if !ok {
			return None(), nil
		}
		return Some(v), nil
	case unit.ContainsProperties.Name:
		prefix := d.configurationPrefix()
		if prefix == "" {
			return true, nil
		}
		return As[Container](args[1]).ContainsProperties(As[*ResolutionContext](args[0]), prefix), nil
	case unit.WarnMissingProperty.Name:
		w := Warning{Type: As[model.TypeRef](args[0]), Method: As[string](args[1]), Property: As[string](args[2])}
		d.mu.Lock()
		d.warnings = append(d.warnings, w)
		d.mu.Unlock()
		d.log.Warn("configuration property skipped",
			slog.String("type", w.Type.String()),
			slog.String("method", w.Method),
			slog.String("property", w.Property))
		return nil, nil

	case unit.SuperInject.Name, unit.SuperPostConstruct.Name, unit.SuperPreDestroy.Name:
		return args[2], nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, d.unit.SuperType, name)
}

func (d *Definition) contains(rc *ResolutionContext, c Container, a *Argument, value bool) bool {
	if !value {
		return c.ContainsBean(rc, a.Type, a.Qualifier)
	}
	return c.ContainsProperty(rc, d.propertyKey(a))
}

// injectField is the reflective path: the field is found by name.
func (d *Definition) injectField(rc *ResolutionContext, c Container, idx, instance any) error {
	f, err := d.field(idx)
	if err != nil {
		return err
	}
	if f.Optional && !d.contains(rc, c, f.Argument, f.Value) {
		return nil
	}
	var v any
	if f.Value {
		v, err = d.resolveValue(rc, c, f.Argument, f.Optional, "field "+f.Name)
	} else {
		v, err = d.resolveBean(rc, c, f.Argument, "field "+f.Name)
	}
	if err != nil {
		return err
	}
	if v, err = checkCast(v, f.Argument.Type); err != nil {
		return err
	}
	return d.loader.putField(f.Declaring, f.Name, instance, v)
}

// injectMethod is the reflective path: the method is found by descriptor.
func (d *Definition) injectMethod(rc *ResolutionContext, c Container, idx, instance any) error {
	m, err := d.method(idx)
	if err != nil {
		return err
	}
	if m.Optional && len(m.Arguments) == 1 && !d.contains(rc, c, m.Arguments[0], m.Value) {
		return nil
	}
	params := make([]model.TypeRef, len(m.Arguments))
	values := make([]any, len(m.Arguments))
	for i, a := range m.Arguments {
		params[i] = a.Type
		v, err := d.resolveArgument(rc, c, m, a)
		if err != nil {
			return err
		}
		if values[i], err = checkCast(v, a.Type); err != nil {
			return err
		}
	}
	cls, err := d.loader.class(m.Declaring)
	if err != nil {
		return err
	}
	fn, ok := cls.methods[asm.Descriptor(m.Name, params)]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, m.Declaring, asm.Descriptor(m.Name, params))
	}
	_, err = fn(instance, values)
	return err
}
