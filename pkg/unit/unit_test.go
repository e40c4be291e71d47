package unit

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
)

func sampleUnit() *Unit {
	engine := model.T("cars", "Engine")
	build := asm.NewBody(MethodBuild, 4)
	build.New(engine, nil)
	slot := build.StoreNewLocal()
	skip := build.NewLabel()
	build.PushBool(true)
	build.IfFalse(skip)
	build.Mark(skip)
	build.Load(slot)
	build.ReturnValue()

	return &Unit{
		Name:       "cars.$EngineDefinition",
		Kind:       KindDefinition,
		SuperType:  model.TypeAbstractDefinition,
		Interfaces: []model.TypeRef{model.TypeFactory},
		BeanType:   engine,
		Methods: []*Method{
			{Name: MethodBuild, Params: []model.TypeRef{model.TypeResolutionContext, model.TypeContainer, model.TypeDefinition}, Returns: model.Any, Body: build},
		},
	}
}

func TestEncodeDecode(t *testing.T) {
	u := sampleUnit()
	data, err := Encode(u)
	require.NoError(t, err)
	require.Equal(t, Magic, string(data[:len(Magic)]))

	got, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(Listing(u), Listing(got)); diff != "" {
		t.Fatalf("listing changed across codec (-want +got):\n%s", diff)
	}
	require.Equal(t, u.BeanType, got.BeanType)
	require.Equal(t, u.Method(MethodBuild).Body.Instrs, got.Method(MethodBuild).Body.Instrs)
	require.True(t, got.Implements(model.TypeFactory))
	require.False(t, got.Implements(model.TypeDisposableDefinition))
}

func TestDecodeRejectsForeignBytes(t *testing.T) {
	_, err := Decode([]byte("{}"))
	require.True(t, errors.Is(err, ErrBadMagic))

	_, err = Decode([]byte(Magic + "garbage"))
	require.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	require.Equal(t, model.T("cars", "$EngineDefinition$exec1"), TypeOf("cars.$EngineDefinition$exec1"))
	require.Equal(t, model.T("cars", "$EngineDefinition"), sampleUnit().Type())
}

func TestListing(t *testing.T) {
	l := Listing(sampleUnit())
	require.Contains(t, l, "definition cars.$EngineDefinition\n")
	require.Contains(t, l, "implements beandef.BeanFactory\n")
	require.Contains(t, l, "Build(beandef.ResolutionContext,beandef.Container,beandef.Definition) any\n")
	require.Contains(t, l, "0000 new cars.Engine()\n")
	require.Contains(t, l, "0001 store 4\n")
	require.Contains(t, l, "   L1:\n")
}
