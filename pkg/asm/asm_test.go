package asm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/pkg/model"
)

func TestBodySlotsAndLabels(t *testing.T) {
	b := NewBody("Build", 4)
	b.PushNull()
	require.Equal(t, 4, b.StoreNewLocal())
	require.Equal(t, 5, b.NewLocal())
	require.Equal(t, 6, b.Locals)

	l1, l2 := b.NewLabel(), b.NewLabel()
	require.NotEqual(t, l1, l2)

	h := b.PushString("x")
	require.Equal(t, OpConst, b.At(h).Op)
	require.Equal(t, "x", b.At(h).Str)
	require.Equal(t, `const "x"`, b.Last().String())
}

func TestInstrString(t *testing.T) {
	b := NewBody("Inject", 4)
	b.Invoke(InvokeSuper, model.TypeAbstractDefinition, "ResolveBeanForField",
		[]model.TypeRef{model.TypeResolutionContext, model.TypeContainer, model.Int}, model.Any)
	require.Equal(t,
		"invoke.super beandef.AbstractDefinition.ResolveBeanForField(beandef.ResolutionContext,beandef.Container,int) any",
		b.Last().String())

	b.NewArray(model.TypeArgument, 2)
	require.Equal(t, "newarray beandef.Argument 2", b.Last().String())
	b.PushBool(true)
	require.Equal(t, "const true", b.Last().String())
}

func TestDescriptor(t *testing.T) {
	require.Equal(t, "setName(string)", Descriptor("setName", []model.TypeRef{model.String}))
	require.Equal(t, "close()", Descriptor("close", nil))
}

func TestVerify(ttt *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Body)
		wantErr bool
	}{
		{
			name: "straight line",
			build: func(b *Body) {
				b.Load(0)
				b.Load(1)
				b.Invoke(InvokeVirtual, model.T("cars", "Engine"), "Start", []model.TypeRef{model.Any}, model.Void)
				b.Return()
			},
		},
		{
			name: "guarded branch",
			build: func(b *Body) {
				skip := b.NewLabel()
				b.PushBool(false)
				b.IfFalse(skip)
				b.PushInt(1)
				b.Pop()
				b.Mark(skip)
				b.Return()
			},
		},
		{
			name: "try catch",
			build: func(b *Body) {
				start, end, handler, done := b.NewLabel(), b.NewLabel(), b.NewLabel(), b.NewLabel()
				b.Mark(start)
				b.Load(0)
				b.Invoke(InvokeVirtual, model.T("cars", "Builder"), "Size", nil, model.Int)
				b.Pop()
				b.Mark(end)
				b.Goto(done)
				b.Mark(handler)
				b.Pop()
				b.Mark(done)
				b.Return()
				b.TryCatch(start, end, handler, CatchNoSuchMethod)
			},
		},
		{
			name:    "underflow",
			build:   func(b *Body) { b.Pop(); b.Return() },
			wantErr: true,
		},
		{
			name:    "falls off end",
			build:   func(b *Body) { b.PushNull(); b.Pop() },
			wantErr: true,
		},
		{
			name:    "slot out of range",
			build:   func(b *Body) { b.Load(9); b.ReturnValue() },
			wantErr: true,
		},
		{
			name: "unmarked label",
			build: func(b *Body) {
				b.PushBool(true)
				b.IfFalse(b.NewLabel())
				b.Return()
			},
			wantErr: true,
		},
		{
			name: "inconsistent depth",
			build: func(b *Body) {
				l := b.NewLabel()
				b.PushNull()
				b.PushBool(true)
				b.IfFalse(l)
				b.Pop()
				b.Mark(l)
				b.Return()
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBody(tt.name, 2)
			tt.build(b)
			err := Verify(b)
			if tt.wantErr {
				require.True(t, errors.Is(err, ErrMalformed), "got %v", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLabelIndex(t *testing.T) {
	b := NewBody("x", 0)
	l := b.NewLabel()
	b.PushNull()
	b.Mark(l)
	require.Equal(t, map[Label]int{l: 1}, b.LabelIndex())
}
