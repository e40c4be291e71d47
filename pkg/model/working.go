package model

// Kind classifies an injection point.
type Kind int

const (
	KindInvalid       Kind = iota
	KindConstructor        // constructor or factory method argument
	KindField              // field written directly or through reflection
	KindSetter             // single-argument setter
	KindMethod             // arbitrary injected method
	KindPostConstruct      // lifecycle hook run after injection
	KindPreDestroy         // lifecycle hook run on disposal
)

func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindField:
		return "field"
	case KindSetter:
		return "setter"
	case KindMethod:
		return "method"
	case KindPostConstruct:
		return "post-construct"
	case KindPreDestroy:
		return "pre-destroy"
	}
	return "invalid"
}

// RuntimePackage is the package of every type the generated code talks to.
const RuntimePackage = "beandef"

func runtimeType(name string) TypeRef { return TypeRef{PkgPath: RuntimePackage, Name: name} }

var (
	// Builtins ------------------------------------------------------------
	Void     = TypeRef{Name: "void"}
	Bool     = TypeRef{Name: "bool"}
	Int      = TypeRef{Name: "int"}
	Int64    = TypeRef{Name: "int64"}
	Float64  = TypeRef{Name: "float64"}
	String   = TypeRef{Name: "string"}
	Any      = TypeRef{Name: "any"}
	Duration = TypeRef{PkgPath: "time", Name: "Duration"}

	StringArray = String.ArrayOf()

	// Runtime -------------------------------------------------------------
	TypeType               = runtimeType("Type")
	TypeArgument           = runtimeType("Argument")
	TypeArgumentArray      = TypeArgument.ArrayOf()
	TypeAnnotationMetadata = runtimeType("AnnotationMetadata")
	TypeResolutionContext  = runtimeType("ResolutionContext")
	TypeContainer          = runtimeType("Container")
	TypeOptional           = runtimeType("Optional")
	TypeTimeUnit           = runtimeType("TimeUnit")
	TypeArgs               = runtimeType("Args")
	TypeDefinition         = runtimeType("Definition")
	TypeNoSuchMethod       = runtimeType("NoSuchMethodError")

	TypeAbstractDefinition       = runtimeType("AbstractDefinition")
	TypeParametrizedDefinition   = runtimeType("AbstractParametrizedDefinition")
	TypeFactory                  = runtimeType("BeanFactory")
	TypeParametrizedFactory      = runtimeType("ParametrizedBeanFactory")
	TypeInitializingDefinition   = runtimeType("InitializingDefinition")
	TypeDisposableDefinition     = runtimeType("DisposableDefinition")
	TypeValidatedDefinition      = runtimeType("ValidatedDefinition")
	TypeExecutableMethod         = runtimeType("ExecutableMethod")
	TypeAbstractExecutableMethod = runtimeType("AbstractExecutableMethod")
)

// IsBuiltin reports whether t names a predeclared scalar.
func (t TypeRef) IsBuiltin() bool {
	if t.PkgPath != "" {
		return false
	}
	switch t.Name {
	case "void", "bool", "int", "int64", "float64", "string", "any":
		return true
	}
	return false
}
