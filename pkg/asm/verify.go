package asm

import (
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed body")

// Verify checks that every branch target is marked exactly once, that no
// instruction underflows the operand stack, that each label is reached with
// one stack depth, and that every local read or written lies below Locals.
// Handler targets start with the caught error as the only operand.
func Verify(b *Body) error {
	marks := make(map[Label]int)
	for i, in := range b.Instrs {
		if in.Op != OpLabel {
			continue
		}
		if _, dup := marks[in.Label]; dup {
			return fmt.Errorf("%w: %s: label L%d marked twice", ErrMalformed, b.Name, in.Label)
		}
		marks[in.Label] = i
	}

	depthAt := make(map[Label]int)
	for _, h := range b.Handlers {
		for _, l := range []Label{h.Start, h.End, h.Target} {
			if _, ok := marks[l]; !ok {
				return fmt.Errorf("%w: %s: handler label L%d never marked", ErrMalformed, b.Name, l)
			}
		}
		if marks[h.Start] > marks[h.End] {
			return fmt.Errorf("%w: %s: handler range L%d..L%d is inverted", ErrMalformed, b.Name, h.Start, h.End)
		}
		depthAt[h.Target] = 1
	}

	depth, reachable := 0, true
	for i, in := range b.Instrs {
		fail := func(format string, args ...any) error {
			return fmt.Errorf("%w: %s@%d (%s): %s", ErrMalformed, b.Name, i, in, fmt.Sprintf(format, args...))
		}
		if in.Op == OpLabel {
			want, known := depthAt[in.Label]
			switch {
			case reachable && known && want != depth:
				return fail("stack depth %d, branch expects %d", depth, want)
			case !reachable && !known:
				return fail("unreachable label")
			case !reachable:
				depth, reachable = want, true
			}
			depthAt[in.Label] = depth
			continue
		}
		if !reachable {
			return fail("unreachable instruction")
		}

		pop, push := stackEffect(in)
		if depth < pop {
			return fail("stack underflow: need %d, have %d", pop, depth)
		}
		depth += push - pop

		switch in.Op {
		case OpLoad, OpStore:
			if in.Int < 0 || int(in.Int) >= b.Locals {
				return fail("slot %d outside %d locals", in.Int, b.Locals)
			}
		case OpIfFalse, OpGoto:
			if _, ok := marks[in.Label]; !ok {
				return fail("branch to unmarked label")
			}
			if marks[in.Label] < i {
				return fail("backward branch")
			}
			if want, known := depthAt[in.Label]; known && want != depth {
				return fail("stack depth %d, label expects %d", depth, want)
			}
			depthAt[in.Label] = depth
			if in.Op == OpGoto {
				reachable = false
			}
		case OpReturn, OpReturnValue:
			reachable = false
		case OpInvalid:
			return fail("invalid opcode")
		}
	}
	if reachable {
		return fmt.Errorf("%w: %s: falls off the end", ErrMalformed, b.Name)
	}
	return nil
}

func stackEffect(in Instr) (pop, push int) {
	switch in.Op {
	case OpConst, OpLoad, OpGetStatic, OpNewArray:
		return 0, 1
	case OpStore, OpPop, OpIfFalse, OpReturnValue:
		return 1, 0
	case OpDup:
		return 1, 2
	case OpArrayStore:
		return 3, 0
	case OpArrayLoad:
		return 2, 1
	case OpNew:
		return len(in.Params), 1
	case OpGetField, OpCheckCast:
		return 1, 1
	case OpPutField:
		return 2, 0
	case OpInvoke:
		pop = len(in.Params)
		if in.Invoke != InvokeStatic {
			pop++
		}
		if in.ReturnsValue() {
			push = 1
		}
		return pop, push
	}
	return 0, 0
}
