package asm

import (
	"github.com/cmmoran/beandefgen/pkg/model"
)

// Handle addresses an instruction inside its Body.
type Handle int

// Handler covers the instructions between the Start and End labels. A
// failure of kind Catch raised there clears the operand stack, pushes the
// error and resumes at Target.
type Handler struct {
	Start  Label  `bson:"start"`
	End    Label  `bson:"end"`
	Target Label  `bson:"target"`
	Catch  string `bson:"catch"`
}

// CatchNoSuchMethod is the only failure generated code recovers from.
const CatchNoSuchMethod = "NoSuchMethod"

// Body is the instruction sequence of one method.
type Body struct {
	Name     string    `bson:"name"`
	Instrs   []Instr   `bson:"instrs"`
	Handlers []Handler `bson:"handlers,omitempty"`
	Locals   int       `bson:"locals"`
	Labels   int       `bson:"labels"`
}

// NewBody starts a body whose first reserved slots hold the receiver and
// parameters.
func NewBody(name string, reserved int) *Body {
	return &Body{Name: name, Locals: reserved}
}

func (b *Body) Emit(in Instr) Handle {
	b.Instrs = append(b.Instrs, in)
	return Handle(len(b.Instrs) - 1)
}

func (b *Body) At(h Handle) Instr { return b.Instrs[h] }

func (b *Body) Len() int { return len(b.Instrs) }

// Last returns the most recently emitted instruction.
func (b *Body) Last() Instr { return b.Instrs[len(b.Instrs)-1] }

func (b *Body) NewLabel() Label {
	b.Labels++
	return Label(b.Labels)
}

// Mark places l at the current position.
func (b *Body) Mark(l Label) Handle {
	return b.Emit(Instr{Op: OpLabel, Label: l})
}

// NewLocal allocates the next free slot.
func (b *Body) NewLocal() int {
	b.Locals++
	return b.Locals - 1
}

// StoreNewLocal pops the top of stack into a freshly allocated slot.
func (b *Body) StoreNewLocal() int {
	slot := b.NewLocal()
	b.Store(slot)
	return slot
}

func (b *Body) TryCatch(start, end, target Label, catch string) {
	b.Handlers = append(b.Handlers, Handler{Start: start, End: end, Target: target, Catch: catch})
}

// constants -------------------------------------------------------------------

func (b *Body) PushNull() Handle {
	return b.Emit(Instr{Op: OpConst, Const: ConstNull})
}

func (b *Body) PushBool(v bool) Handle {
	var i int64
	if v {
		i = 1
	}
	return b.Emit(Instr{Op: OpConst, Const: ConstBool, Int: i})
}

func (b *Body) PushInt(v int) Handle {
	return b.Emit(Instr{Op: OpConst, Const: ConstInt, Int: int64(v)})
}

func (b *Body) PushString(s string) Handle {
	return b.Emit(Instr{Op: OpConst, Const: ConstString, Str: s})
}

func (b *Body) PushType(t model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpConst, Const: ConstType, Type: t.Ptr()})
}

// stack and locals ------------------------------------------------------------

func (b *Body) Load(slot int) Handle  { return b.Emit(Instr{Op: OpLoad, Int: int64(slot)}) }
func (b *Body) Store(slot int) Handle { return b.Emit(Instr{Op: OpStore, Int: int64(slot)}) }
func (b *Body) Dup() Handle           { return b.Emit(Instr{Op: OpDup}) }
func (b *Body) Pop() Handle           { return b.Emit(Instr{Op: OpPop}) }

// objects and arrays ----------------------------------------------------------

func (b *Body) NewArray(elem model.TypeRef, n int) Handle {
	return b.Emit(Instr{Op: OpNewArray, Type: elem.Ptr(), Int: int64(n)})
}

func (b *Body) ArrayStore() Handle { return b.Emit(Instr{Op: OpArrayStore}) }
func (b *Body) ArrayLoad() Handle  { return b.Emit(Instr{Op: OpArrayLoad}) }

// New constructs t from the len(params) values on top of the stack.
func (b *Body) New(t model.TypeRef, params []model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpNew, Owner: t.Ptr(), Params: params})
}

func (b *Body) GetField(owner model.TypeRef, name string, t model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpGetField, Owner: owner.Ptr(), Name: name, Type: t.Ptr()})
}

func (b *Body) PutField(owner model.TypeRef, name string, t model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpPutField, Owner: owner.Ptr(), Name: name, Type: t.Ptr()})
}

func (b *Body) GetStatic(owner model.TypeRef, name string, t model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpGetStatic, Owner: owner.Ptr(), Name: name, Type: t.Ptr()})
}

func (b *Body) Invoke(kind InvokeKind, owner model.TypeRef, name string, params []model.TypeRef, returns model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpInvoke, Invoke: kind, Owner: owner.Ptr(), Name: name, Params: params, Returns: returns.Ptr()})
}

func (b *Body) CheckCast(t model.TypeRef) Handle {
	return b.Emit(Instr{Op: OpCheckCast, Type: t.Ptr()})
}

// control flow ----------------------------------------------------------------

func (b *Body) IfFalse(l Label) Handle { return b.Emit(Instr{Op: OpIfFalse, Label: l}) }
func (b *Body) Goto(l Label) Handle    { return b.Emit(Instr{Op: OpGoto, Label: l}) }
func (b *Body) Return() Handle         { return b.Emit(Instr{Op: OpReturn}) }
func (b *Body) ReturnValue() Handle    { return b.Emit(Instr{Op: OpReturnValue}) }

// LabelIndex maps each marked label to the index of its OpLabel.
func (b *Body) LabelIndex() map[Label]int {
	idx := make(map[Label]int, b.Labels)
	for i, in := range b.Instrs {
		if in.Op == OpLabel {
			idx[in.Label] = i
		}
	}
	return idx
}
