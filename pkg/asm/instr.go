// Package asm is a small typed instruction set for the bodies of compiled
// bean definition units. A Body is an arena of instructions addressed by
// Handle, with integer local slots, forward labels and a try/catch table.
package asm

import (
	"fmt"
	"strings"

	"github.com/cmmoran/beandefgen/pkg/model"
)

type Op int

const (
	OpInvalid     Op = iota // zero value
	OpConst                 // push constant
	OpLoad                  // push local Int
	OpStore                 // pop into local Int
	OpDup                   // duplicate top of stack
	OpPop                   // discard top of stack
	OpNewArray              // push new array of Type with Int elements
	OpArrayStore            // pop value, index, array
	OpArrayLoad             // pop index, array; push element
	OpNew                   // pop len(Params) arguments; push new Owner
	OpGetField              // pop receiver; push Owner.Name
	OpPutField              // pop value, receiver
	OpGetStatic             // push static Owner.Name
	OpInvoke                // pop receiver (unless static) and arguments; push result unless void
	OpCheckCast             // assert top of stack is assignable to Type
	OpIfFalse               // pop bool; jump to Label when false
	OpGoto                  // jump to Label
	OpLabel                 // branch target
	OpReturn                // return nothing
	OpReturnValue           // pop and return
)

var opNames = [...]string{
	OpInvalid:     "invalid",
	OpConst:       "const",
	OpLoad:        "load",
	OpStore:       "store",
	OpDup:         "dup",
	OpPop:         "pop",
	OpNewArray:    "newarray",
	OpArrayStore:  "astore",
	OpArrayLoad:   "aload",
	OpNew:         "new",
	OpGetField:    "getfield",
	OpPutField:    "putfield",
	OpGetStatic:   "getstatic",
	OpInvoke:      "invoke",
	OpCheckCast:   "checkcast",
	OpIfFalse:     "iffalse",
	OpGoto:        "goto",
	OpLabel:       "label",
	OpReturn:      "return",
	OpReturnValue: "returnvalue",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("op(%d)", int(o))
	}
	return opNames[o]
}

// ConstKind selects the constant pushed by OpConst.
type ConstKind int

const (
	ConstNull ConstKind = iota
	ConstBool
	ConstInt
	ConstString
	ConstType
)

// InvokeKind is the dispatch mode of OpInvoke.
type InvokeKind int

const (
	InvokeVirtual InvokeKind = iota
	InvokeInterface
	InvokeStatic
	InvokeSuper
)

func (k InvokeKind) String() string {
	switch k {
	case InvokeInterface:
		return "interface"
	case InvokeStatic:
		return "static"
	case InvokeSuper:
		return "super"
	}
	return "virtual"
}

// Label identifies a branch target within one Body.
type Label int

// Instr is one instruction. Only the operands its Op reads are set.
type Instr struct {
	Op      Op              `bson:"op"`
	Const   ConstKind       `bson:"ck,omitempty"`
	Int     int64           `bson:"i,omitempty"`
	Str     string          `bson:"s,omitempty"`
	Type    *model.TypeRef  `bson:"t,omitempty"`
	Owner   *model.TypeRef  `bson:"o,omitempty"`
	Name    string          `bson:"n,omitempty"`
	Params  []model.TypeRef `bson:"p,omitempty"`
	Returns *model.TypeRef  `bson:"r,omitempty"`
	Invoke  InvokeKind      `bson:"k,omitempty"`
	Label   Label           `bson:"l,omitempty"`
}

// Descriptor is the lookup key of a member: name(param,param).
func Descriptor(name string, params []model.TypeRef) string {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = p.String()
	}
	return name + "(" + strings.Join(ps, ",") + ")"
}

// ReturnsValue reports whether an invoke leaves a result on the stack.
func (in Instr) ReturnsValue() bool {
	return in.Returns != nil && !in.Returns.IsVoid()
}

func (in Instr) String() string {
	switch in.Op {
	case OpConst:
		switch in.Const {
		case ConstNull:
			return "const null"
		case ConstBool:
			return fmt.Sprintf("const %t", in.Int != 0)
		case ConstInt:
			return fmt.Sprintf("const %d", in.Int)
		case ConstString:
			return fmt.Sprintf("const %q", in.Str)
		case ConstType:
			return "const type " + in.Type.String()
		}
	case OpLoad, OpStore:
		return fmt.Sprintf("%s %d", in.Op, in.Int)
	case OpNewArray:
		return fmt.Sprintf("newarray %s %d", in.Type, in.Int)
	case OpNew:
		return "new " + in.Owner.String() + paramList(in.Params)
	case OpGetField, OpPutField, OpGetStatic:
		return fmt.Sprintf("%s %s.%s %s", in.Op, in.Owner, in.Name, in.Type)
	case OpInvoke:
		ret := model.Void
		if in.Returns != nil {
			ret = *in.Returns
		}
		return fmt.Sprintf("invoke.%s %s.%s%s %s", in.Invoke, in.Owner, in.Name, paramList(in.Params), ret)
	case OpCheckCast:
		return "checkcast " + in.Type.String()
	case OpIfFalse, OpGoto:
		return fmt.Sprintf("%s L%d", in.Op, in.Label)
	case OpLabel:
		return fmt.Sprintf("L%d:", in.Label)
	}
	return in.Op.String()
}

func paramList(params []model.TypeRef) string {
	return Descriptor("", params)
}
