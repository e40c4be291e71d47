package unit

import (
	"github.com/cmmoran/beandefgen/pkg/asm"
	"github.com/cmmoran/beandefgen/pkg/model"
)

// Method names of a compiled definition.
const (
	MethodInit                     = "<init>"
	MethodBuild                    = "Build"
	MethodDoBuild                  = "DoBuild"
	MethodInject                   = "Inject"
	MethodInitialize               = "Initialize"
	MethodDispose                  = "Dispose"
	MethodAnnotationMetadata       = "AnnotationMetadata"
	MethodRequiresMethodProcessing = "RequiresMethodProcessing"
	MethodInvoke                   = "Invoke"
)

// Signature is a runtime operation generated code calls. Owner is empty for
// operations inherited from the unit's super type.
type Signature struct {
	Owner   model.TypeRef
	Name    string
	Params  []model.TypeRef
	Returns model.TypeRef
}

// Emit invokes s on owner with the given dispatch.
func (s Signature) Emit(b *asm.Body, kind asm.InvokeKind, owner model.TypeRef) asm.Handle {
	return b.Invoke(kind, owner, s.Name, s.Params, s.Returns)
}

// Static invokes s on its own owner.
func (s Signature) Static(b *asm.Body) asm.Handle {
	return b.Invoke(asm.InvokeStatic, s.Owner, s.Name, s.Params, s.Returns)
}

func sig(name string, returns model.TypeRef, params ...model.TypeRef) Signature {
	return Signature{Name: name, Params: params, Returns: returns}
}

var (
	ctx  = model.TypeResolutionContext
	cont = model.TypeContainer
)

// Super operations of a definition.
var (
	InitDefinition = sig(MethodInit, model.Void, model.TypeType, model.TypeAnnotationMetadata, model.Bool, model.TypeArgumentArray)
	InitFactory    = sig("<init-factory>", model.Void, model.TypeType, model.TypeType, model.String, model.TypeAnnotationMetadata, model.TypeArgumentArray)

	AddFieldInjectionPoint  = sig("AddFieldInjectionPoint", model.Void, model.TypeType, model.String, model.TypeArgument, model.Bool, model.Bool, model.Bool)
	AddSetterInjectionPoint = sig("AddSetterInjectionPoint", model.Void, model.TypeType, model.String, model.TypeArgument, model.Bool, model.Bool, model.Bool)
	AddMethodInjectionPoint = sig("AddMethodInjectionPoint", model.Void, model.TypeType, model.String, model.TypeArgumentArray, model.TypeAnnotationMetadata, model.Bool)
	AddPostConstruct        = sig("AddPostConstruct", model.Void, model.TypeType, model.String, model.TypeArgumentArray, model.TypeAnnotationMetadata, model.Bool)
	AddPreDestroy           = sig("AddPreDestroy", model.Void, model.TypeType, model.String, model.TypeArgumentArray, model.TypeAnnotationMetadata, model.Bool)
	AddExecutableMethod     = sig("AddExecutableMethod", model.Void, model.TypeExecutableMethod)

	ResolveBeanForField   = sig("ResolveBeanForField", model.Any, ctx, cont, model.Int)
	ResolveValueForField  = sig("ResolveValueForField", model.Any, ctx, cont, model.Int)
	ContainsValueForField = sig("ContainsValueForField", model.Bool, ctx, cont, model.Int)

	ResolveBeanForArgument   = sig("ResolveBeanForArgument", model.Any, ctx, cont, model.Int, model.Int)
	ResolveValueForArgument  = sig("ResolveValueForArgument", model.Any, ctx, cont, model.Int, model.Int)
	ContainsValueForArgument = sig("ContainsValueForArgument", model.Bool, ctx, cont, model.Int, model.Int)

	ResolveBeanForConstructorArgument  = sig("ResolveBeanForConstructorArgument", model.Any, ctx, cont, model.Int)
	ResolveValueForConstructorArgument = sig("ResolveValueForConstructorArgument", model.Any, ctx, cont, model.Int)

	InjectBeanField  = sig("InjectBeanField", model.Void, ctx, cont, model.Int, model.Any)
	InjectBeanMethod = sig("InjectBeanMethod", model.Void, ctx, cont, model.Int, model.Any)

	ResolveValueForPath = sig("ResolveValueForPath", model.TypeOptional, ctx, cont, model.TypeArgument, model.StringArray)
	ContainsProperties  = sig("ContainsProperties", model.Bool, ctx, cont)
	WarnMissingProperty = sig("WarnMissingProperty", model.Void, model.TypeType, model.String, model.String)

	SuperInject        = sig("InjectBean", model.Any, ctx, cont, model.Any)
	SuperPostConstruct = sig("PostConstruct", model.Any, ctx, cont, model.Any)
	SuperPreDestroy    = sig("PreDestroy", model.Any, ctx, cont, model.Any)

	// Lifecycle hooks a definition calls on itself.
	HookInject     = sig(MethodInject, model.Any, ctx, cont, model.Any)
	HookInitialize = sig(MethodInitialize, model.Any, ctx, cont, model.Any)
	HookDispose    = sig(MethodDispose, model.Any, ctx, cont, model.Any)

	InitExecutableMethod = sig(MethodInit, model.Void, model.TypeType, model.String, model.TypeArgument, model.TypeArgumentArray, model.TypeAnnotationMetadata)
)

// Runtime helpers with fixed owners.
var (
	ArgumentOf          = Signature{model.TypeArgument, "Of", []model.TypeRef{model.TypeType, model.String}, model.TypeArgument}
	ArgumentOfGenerics  = Signature{model.TypeArgument, "OfGenerics", []model.TypeRef{model.TypeType, model.String, model.TypeArgumentArray}, model.TypeArgument}
	ArgumentOfAnnotated = Signature{model.TypeArgument, "OfAnnotated", []model.TypeRef{model.TypeType, model.String, model.TypeType, model.TypeAnnotationMetadata, model.TypeArgumentArray}, model.TypeArgument}
	MetadataFromTriples = Signature{model.TypeAnnotationMetadata, "FromTriples", []model.TypeRef{model.StringArray}, model.TypeAnnotationMetadata}

	OptionalIsPresent    = Signature{model.TypeOptional, "IsPresent", nil, model.Bool}
	OptionalGet          = Signature{model.TypeOptional, "Get", nil, model.Any}
	DurationMilliseconds = Signature{model.Duration, "Milliseconds", nil, model.Int64}
	ArgsGet              = Signature{model.TypeArgs, "Get", []model.TypeRef{model.String}, model.Any}
	ContainerGetBean     = Signature{model.TypeContainer, "GetBean", []model.TypeRef{ctx, model.TypeType}, model.Any}
)

// StaticMilliseconds is the TimeUnit constant paired with a millisecond count.
const StaticMilliseconds = "Milliseconds"

// DefinitionSuffix is appended to the bean's simple name unless overridden.
const DefinitionSuffix = "Definition"
