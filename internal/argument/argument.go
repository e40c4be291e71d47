// Package argument emits the instruction sequences that rebuild argument
// descriptors, generic bindings and annotation metadata at runtime.
package argument

import (
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
	"github.com/cmmoran/beandefgen/pkg/unit"
)

// PushArgument leaves Argument.Of(t, name) on the stack.
func PushArgument(b *asm.Body, name string, t model.TypeRef) {
	b.PushType(t)
	b.PushString(name)
	unit.ArgumentOf.Static(b)
}

// PushArgumentWithGenerics leaves Argument.OfGenerics(t, name, [...]) on the
// stack, or Argument.Of when there are no bindings.
func PushArgumentWithGenerics(b *asm.Body, name string, t model.TypeRef, generics []model.Generic) error {
	if err := model.ValidateGenerics(name, generics); err != nil {
		return err
	}
	pushWithGenerics(b, name, t, generics)
	return nil
}

func pushWithGenerics(b *asm.Body, name string, t model.TypeRef, generics []model.Generic) {
	if len(generics) == 0 {
		PushArgument(b, name, t)
		return
	}
	b.PushType(t)
	b.PushString(name)
	pushTypeArguments(b, generics)
	unit.ArgumentOfGenerics.Static(b)
}

// PushTypeArguments leaves an Argument array, one element per binding,
// recursing into nested bindings. No bindings leaves null.
func PushTypeArguments(b *asm.Body, path string, generics []model.Generic) error {
	if err := model.ValidateGenerics(path, generics); err != nil {
		return err
	}
	if len(generics) == 0 {
		b.PushNull()
		return nil
	}
	pushTypeArguments(b, generics)
	return nil
}

func pushTypeArguments(b *asm.Body, generics []model.Generic) {
	PushArray(b, model.TypeArgument, len(generics), func(i int) {
		g := generics[i]
		pushWithGenerics(b, g.Name, g.Type, g.Generics)
	})
}

// PushAnnotatedArgument leaves Argument.OfAnnotated for a, with null for an
// absent qualifier, metadata or generics.
func PushAnnotatedArgument(b *asm.Body, a model.Argument) error {
	if err := a.Validate(); err != nil {
		return err
	}
	pushAnnotated(b, a)
	return nil
}

func pushAnnotated(b *asm.Body, a model.Argument) {
	b.PushType(a.Type)
	b.PushString(a.Name)
	if a.Qualifier != nil {
		b.PushType(*a.Qualifier)
	} else {
		b.PushNull()
	}
	if a.Metadata.IsEmpty() {
		b.PushNull()
	} else {
		PushAnnotationMetadata(b, a.Metadata)
	}
	if len(a.Generics) == 0 {
		b.PushNull()
	} else {
		pushTypeArguments(b, a.Generics)
	}
	unit.ArgumentOfAnnotated.Static(b)
}

// PushArguments leaves an Argument array describing args. Every argument is
// validated before anything is emitted.
func PushArguments(b *asm.Body, args []model.Argument) error {
	for _, a := range args {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	PushArray(b, model.TypeArgument, len(args), func(i int) {
		pushAnnotated(b, args[i])
	})
	return nil
}

// PushAnnotationMetadata leaves AnnotationMetadata.FromTriples([...]) on the
// stack, or null for empty metadata.
func PushAnnotationMetadata(b *asm.Body, md model.AnnotationMetadata) {
	if md.IsEmpty() {
		b.PushNull()
		return
	}
	PushStringArray(b, md.Triples())
	unit.MetadataFromTriples.Static(b)
}

func PushStringArray(b *asm.Body, values []string) {
	PushArray(b, model.String, len(values), func(i int) {
		b.PushString(values[i])
	})
}

// PushArray creates an n element array and fills it with the value elem
// pushes for each index. The array reference is duplicated before each store
// so exactly one reference remains once the last element is stored.
func PushArray(b *asm.Body, elemType model.TypeRef, n int, elem func(i int)) {
	b.NewArray(elemType, n)
	if n == 0 {
		return
	}
	b.Dup()
	for i := 0; i < n; i++ {
		b.PushInt(i)
		elem(i)
		b.ArrayStore()
		if i != n-1 {
			b.Dup()
		}
	}
}
