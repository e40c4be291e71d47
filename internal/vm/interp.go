package vm

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// object is a loaded unit instance able to answer its super calls.
type object interface {
	invokeSuper(name string, args []any) (any, error)
}

type frame struct {
	l      *Loader
	self   object
	body   *asm.Body
	labels map[asm.Label]int
	locals []any
	stack  []any
}

// run executes m with self in slot 0 and args in the following slots.
func (l *Loader) run(self object, m *unit.Method, args ...any) (any, error) {
	n := m.Body.Locals
	if n < len(args)+1 {
		n = len(args) + 1
	}
	f := &frame{
		l:      l,
		self:   self,
		body:   m.Body,
		labels: m.Body.LabelIndex(),
		locals: make([]any, n),
	}
	f.locals[0] = self
	copy(f.locals[1:], args)
	return f.run()
}

func (f *frame) push(v any) { f.stack = append(f.stack, v) }

func (f *frame) pop() any {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

// popN removes n values, returned in the order they were pushed.
func (f *frame) popN(n int) []any {
	out := make([]any, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out
}

func (f *frame) run() (any, error) {
	instrs := f.body.Instrs
	for pc := 0; pc < len(instrs); pc++ {
		in := instrs[pc]
		switch in.Op {
		case asm.OpIfFalse:
			if b, _ := f.pop().(bool); !b {
				pc = f.labels[in.Label]
			}
			continue
		case asm.OpGoto:
			pc = f.labels[in.Label]
			continue
		case asm.OpReturn:
			return nil, nil
		case asm.OpReturnValue:
			return f.pop(), nil
		}
		if err := f.exec(in); err != nil {
			if target, ok := f.handler(pc, err); ok {
				f.stack = append(f.stack[:0], err)
				pc = target
				continue
			}
			return nil, fmt.Errorf("%s@%d %s: %w", f.body.Name, pc, in, err)
		}
	}
	return nil, fmt.Errorf("%w: %s ends without return", ErrBadInstruction, f.body.Name)
}

func (f *frame) handler(pc int, err error) (int, bool) {
	for _, h := range f.body.Handlers {
		if h.Catch != asm.CatchNoSuchMethod || !errors.Is(err, ErrNoSuchMethod) {
			continue
		}
		if f.labels[h.Start] <= pc && pc < f.labels[h.End] {
			return f.labels[h.Target], true
		}
	}
	return 0, false
}

func (f *frame) exec(in asm.Instr) error {
	switch in.Op {
	case asm.OpLabel:
	case asm.OpConst:
		switch in.Const {
		case asm.ConstNull:
			f.push(nil)
		case asm.ConstBool:
			f.push(in.Int != 0)
		case asm.ConstInt:
			f.push(int(in.Int))
		case asm.ConstString:
			f.push(in.Str)
		case asm.ConstType:
			f.push(*in.Type)
		default:
			return fmt.Errorf("%w: constant kind %d", ErrBadInstruction, in.Const)
		}
	case asm.OpLoad:
		f.push(f.locals[in.Int])
	case asm.OpStore:
		f.locals[in.Int] = f.pop()
	case asm.OpDup:
		f.push(f.stack[len(f.stack)-1])
	case asm.OpPop:
		f.pop()
	case asm.OpNewArray:
		f.push(make([]any, in.Int))
	case asm.OpArrayStore:
		v := f.pop()
		i, _ := f.pop().(int)
		arr, ok := f.pop().([]any)
		if !ok || i < 0 || i >= len(arr) {
			return fmt.Errorf("%w: array store out of range", ErrBadInstruction)
		}
		arr[i] = v
	case asm.OpArrayLoad:
		i, _ := f.pop().(int)
		arr, ok := f.pop().([]any)
		if !ok || i < 0 || i >= len(arr) {
			return fmt.Errorf("%w: array load out of range", ErrBadInstruction)
		}
		f.push(arr[i])
	case asm.OpNew:
		v, err := f.l.newObject(*in.Owner, in.Params, f.popN(len(in.Params)))
		if err != nil {
			return err
		}
		f.push(v)
	case asm.OpGetField:
		v, err := f.l.getField(*in.Owner, in.Name, f.pop())
		if err != nil {
			return err
		}
		f.push(v)
	case asm.OpPutField:
		v := f.pop()
		return f.l.putField(*in.Owner, in.Name, f.pop(), v)
	case asm.OpGetStatic:
		v, err := f.l.getStatic(*in.Owner, in.Name)
		if err != nil {
			return err
		}
		f.push(v)
	case asm.OpInvoke:
		args := f.popN(len(in.Params))
		var (
			res any
			err error
		)
		switch in.Invoke {
		case asm.InvokeStatic:
			res, err = f.l.invokeStatic(*in.Owner, in.Name, in.Params, args)
		case asm.InvokeSuper:
			f.pop()
			res, err = f.self.invokeSuper(in.Name, args)
		default:
			res, err = f.l.invokeVirtual(*in.Owner, in.Name, in.Params, f.pop(), args)
		}
		if err != nil {
			return err
		}
		if in.ReturnsValue() {
			f.push(res)
		}
	case asm.OpCheckCast:
		v, err := checkCast(f.pop(), *in.Type)
		if err != nil {
			return err
		}
		f.push(v)
	default:
		return fmt.Errorf("%w: %s", ErrBadInstruction, in.Op)
	}
	return nil
}

// checkCast admits nil, checks builtins and widens integer kinds. Other
// types are trusted to the class registry.
func checkCast(v any, t model.TypeRef) (any, error) {
	if v == nil || t.IsArray() {
		return v, nil
	}
	fail := func() (any, error) {
		return nil, fmt.Errorf("%w: %T is not %s", ErrClassCast, v, t)
	}
	switch t {
	case model.Bool:
		if _, ok := v.(bool); !ok {
			return fail()
		}
	case model.String:
		if _, ok := v.(string); !ok {
			return fail()
		}
	case model.Int, model.Int64:
		var n int64
		switch x := v.(type) {
		case int:
			n = int64(x)
		case int32:
			n = int64(x)
		case int64:
			n = x
		default:
			return fail()
		}
		if t == model.Int {
			return int(n), nil
		}
		return n, nil
	case model.Float64:
		switch x := v.(type) {
		case float64:
		case int:
			return float64(x), nil
		default:
			return fail()
		}
	case model.Duration:
		if _, ok := v.(time.Duration); !ok {
			return fail()
		}
	}
	return v, nil
}
