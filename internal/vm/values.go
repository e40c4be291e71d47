package vm

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmmoran/beandefgen/pkg/model"
)

// Argument is the runtime form of an argument descriptor.
type Argument struct {
	Name           string
	Type           model.TypeRef
	Qualifier      *model.TypeRef
	Metadata       model.AnnotationMetadata
	TypeParameters []*Argument
}

func (a *Argument) String() string {
	var sb strings.Builder
	sb.WriteString(a.Type.String())
	if len(a.TypeParameters) > 0 {
		ps := make([]string, len(a.TypeParameters))
		for i, p := range a.TypeParameters {
			ps[i] = p.String()
		}
		sb.WriteString("[" + strings.Join(ps, ",") + "]")
	}
	sb.WriteString(" " + a.Name)
	return sb.String()
}

// TypeParameter finds a binding by name.
func (a *Argument) TypeParameter(name string) *Argument {
	for _, p := range a.TypeParameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Optional is a possibly absent value.
type Optional struct {
	value   any
	present bool
}

func Some(v any) Optional { return Optional{value: v, present: true} }

func None() Optional { return Optional{} }

func (o Optional) IsPresent() bool { return o.present }

func (o Optional) Get() any { return o.value }

// TimeUnit scales a count into a duration.
type TimeUnit time.Duration

const Milliseconds = TimeUnit(time.Millisecond)

// Duration converts n units into a time.Duration.
func (u TimeUnit) Duration(n int64) time.Duration { return time.Duration(n) * time.Duration(u) }

// Args carries caller-supplied arguments of a parametrized definition.
type Args map[string]any

// Warning records a configuration property whose delegate method was absent.
type Warning struct {
	Type     model.TypeRef
	Method   string
	Property string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s has no method %s for property %s", w.Type, w.Method, w.Property)
}
