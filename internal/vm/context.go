package vm

import (
	"strings"

	"github.com/cmmoran/beandefgen/pkg/model"
)

// ResolutionContext follows one resolution from its root bean down through
// the injection points being satisfied.
type ResolutionContext struct {
	root model.TypeRef
	path []string
}

func NewResolutionContext(root model.TypeRef) *ResolutionContext {
	return &ResolutionContext{root: root}
}

func (rc *ResolutionContext) Root() model.TypeRef { return rc.root }

// Path renders the current chain, e.g. "cars.Car -> field engine".
func (rc *ResolutionContext) Path() string {
	if rc == nil {
		return ""
	}
	return strings.Join(append([]string{rc.root.String()}, rc.path...), " -> ")
}

func (rc *ResolutionContext) enter(segment string) {
	if rc != nil {
		rc.path = append(rc.path, segment)
	}
}

func (rc *ResolutionContext) leave() {
	if rc != nil && len(rc.path) > 0 {
		rc.path = rc.path[:len(rc.path)-1]
	}
}

// Container is what compiled definitions resolve dependencies from.
type Container interface {
	GetBean(rc *ResolutionContext, t model.TypeRef, qualifier *model.TypeRef) (any, error)
	// ContainsBean reports whether a bean is registered, without building it.
	ContainsBean(rc *ResolutionContext, t model.TypeRef, qualifier *model.TypeRef) bool
	// GetProperty converts the value at key to t. ok is false when unset.
	GetProperty(rc *ResolutionContext, key string, t model.TypeRef) (v any, ok bool, err error)
	ContainsProperty(rc *ResolutionContext, key string) bool
	// ContainsProperties reports whether any property lives under prefix.
	ContainsProperties(rc *ResolutionContext, prefix string) bool
}
