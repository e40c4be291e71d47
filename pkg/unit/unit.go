// Package unit holds the compiled form of a bean definition and its codec.
package unit

import (
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindDefinition
	KindExecutableMethod
)

func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindExecutableMethod:
		return "executable-method"
	}
	return "invalid"
}

type Method struct {
	Name    string          `bson:"name"`
	Params  []model.TypeRef `bson:"params,omitempty"`
	Returns model.TypeRef   `bson:"returns"`
	Body    *asm.Body       `bson:"body"`
}

// Unit is one compiled, loadable definition.
type Unit struct {
	Name       string          `bson:"name"`
	Kind       Kind            `bson:"kind"`
	SuperType  model.TypeRef   `bson:"super"`
	Interfaces []model.TypeRef `bson:"interfaces,omitempty"`
	BeanType   model.TypeRef   `bson:"bean"`
	Methods    []*Method       `bson:"methods"`
}

// Type is the unit's own type, used as the owner of calls into itself.
func (u *Unit) Type() model.TypeRef {
	return TypeOf(u.Name)
}

// TypeOf splits a unit name into package and simple name.
func TypeOf(name string) model.TypeRef {
	t, err := model.ParseTypeRef(name)
	if err != nil {
		return model.TypeRef{Name: name}
	}
	return t
}

func (u *Unit) Method(name string) *Method {
	for _, m := range u.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (u *Unit) Implements(t model.TypeRef) bool {
	for _, i := range u.Interfaces {
		if i == t {
			return true
		}
	}
	return false
}
