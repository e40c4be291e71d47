package writer

import (
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// Strategy is how generated code reaches an injection point.
type Strategy int

const (
	// StrategyDirect writes fields and calls methods itself.
	StrategyDirect Strategy = iota
	// StrategyReflective delegates to the runtime's reflective primitives.
	StrategyReflective
)

func (s Strategy) String() string {
	if s == StrategyReflective {
		return "reflective"
	}
	return "direct"
}

// fieldAccess is everything needed to emit one field write.
type fieldAccess struct {
	super     model.TypeRef
	declaring model.TypeRef
	name      string
	typ       model.TypeRef
	index     int
	resolve   unit.Signature
	instance  int
}

// methodAccess is everything needed to emit one method call. resolve holds
// the lookup for each argument, in order.
type methodAccess struct {
	super     model.TypeRef
	declaring model.TypeRef
	dispatch  asm.InvokeKind
	name      string
	params    []model.TypeRef
	returns   model.TypeRef
	index     int
	resolve   []unit.Signature
	instance  int
}

type accessStrategy interface {
	Kind() Strategy
	field(b *asm.Body, f fieldAccess)
	method(b *asm.Body, m methodAccess)
}

func strategyFor(requiresReflection bool) accessStrategy {
	if requiresReflection {
		return reflective{}
	}
	return direct{}
}

type direct struct{}

func (direct) Kind() Strategy { return StrategyDirect }

func (direct) field(b *asm.Body, f fieldAccess) {
	b.Load(f.instance)
	pushResolverArgs(b)
	b.PushInt(f.index)
	f.resolve.Emit(b, asm.InvokeSuper, f.super)
	b.CheckCast(f.typ)
	b.PutField(f.declaring, f.name, f.typ)
}

func (direct) method(b *asm.Body, m methodAccess) {
	b.Load(m.instance)
	for i, r := range m.resolve {
		pushResolverArgs(b)
		b.PushInt(m.index)
		b.PushInt(i)
		r.Emit(b, asm.InvokeSuper, m.super)
		b.CheckCast(m.params[i])
	}
	b.Invoke(m.dispatch, m.declaring, m.name, m.params, m.returns)
	if !m.returns.IsVoid() {
		b.Pop()
	}
}

type reflective struct{}

func (reflective) Kind() Strategy { return StrategyReflective }

func (reflective) field(b *asm.Body, f fieldAccess) {
	pushResolverArgs(b)
	b.PushInt(f.index)
	b.Load(f.instance)
	unit.InjectBeanField.Emit(b, asm.InvokeSuper, f.super)
}

func (reflective) method(b *asm.Body, m methodAccess) {
	pushResolverArgs(b)
	b.PushInt(m.index)
	b.Load(m.instance)
	unit.InjectBeanMethod.Emit(b, asm.InvokeSuper, m.super)
}

// pushResolverArgs loads the definition, resolution context and container.
func pushResolverArgs(b *asm.Body) {
	b.Load(slotThis)
	b.Load(slotContext)
	b.Load(slotContainer)
}
