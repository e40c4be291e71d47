// Package container is a reference implementation of vm.Container. Beans
// live in a samber/do injector keyed by type name, properties in a viper
// instance.
package container

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/do"
	"github.com/spf13/viper"

	"github.com/cmmoran/beandefgen/internal/vm"
	"github.com/cmmoran/beandefgen/pkg/model"
)

var ErrDuplicateBean = errors.New("bean already registered")

// ErrInvalidBean wraps the error of a validated bean's Validate method.
var ErrInvalidBean = errors.New("bean failed validation")

// Validator is checked after building beans whose definition is validated.
type Validator interface {
	Validate() error
}

// ErrCircular is returned when a definition is requested while it is still
// being built.
var ErrCircular = errors.New("circular dependency")

// Container resolves beans and properties for compiled definitions. First
// resolution of a definition is expected from one goroutine at a time.
type Container struct {
	log      *slog.Logger
	injector *do.Injector
	props    *viper.Viper

	mu       sync.Mutex
	names    map[string]struct{}
	building map[string]struct{}
	built    []builtBean
}

type builtBean struct {
	def      *vm.Definition
	instance any
}

type Option func(*Container)

func WithLogger(l *slog.Logger) Option { return func(c *Container) { c.log = l } }

// WithProperties replaces the property source.
func WithProperties(v *viper.Viper) Option { return func(c *Container) { c.props = v } }

func New(opts ...Option) *Container {
	c := &Container{
		log:      slog.Default(),
		injector: do.New(),
		props:    viper.New(),
		names:    map[string]struct{}{},
		building: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Properties exposes the property source for callers to populate.
func (c *Container) Properties() *viper.Viper { return c.props }

// BeanName is the injector key of t, with qualifier when present.
func BeanName(t model.TypeRef, qualifier *model.TypeRef) string {
	if qualifier == nil {
		return t.String()
	}
	return t.String() + "#" + qualifier.String()
}

func (c *Container) claim(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBean, name)
	}
	c.names[name] = struct{}{}
	return nil
}

// Register provides a ready instance.
func (c *Container) Register(t model.TypeRef, qualifier *model.TypeRef, instance any) error {
	name := BeanName(t, qualifier)
	if err := c.claim(name); err != nil {
		return err
	}
	do.ProvideNamedValue[any](c.injector, name, instance)
	c.log.Debug("bean registered", slog.String("bean", name))
	return nil
}

// RegisterDefinition provides the definition's bean lazily. It is built
// once, on first request.
func (c *Container) RegisterDefinition(d *vm.Definition, qualifier *model.TypeRef) error {
	name := BeanName(d.BeanType(), qualifier)
	if err := c.claim(name); err != nil {
		return err
	}
	do.ProvideNamed[any](c.injector, name, func(*do.Injector) (any, error) {
		c.mu.Lock()
		c.building[name] = struct{}{}
		c.mu.Unlock()
		defer func() {
			c.mu.Lock()
			delete(c.building, name)
			c.mu.Unlock()
		}()

		instance, err := d.Build(vm.NewResolutionContext(d.BeanType()), c, nil)
		if err != nil {
			return nil, err
		}
		if v, ok := instance.(Validator); ok && d.IsValidated() {
			if err := v.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBean, name, err)
			}
		}
		c.mu.Lock()
		c.built = append(c.built, builtBean{def: d, instance: instance})
		c.mu.Unlock()
		c.log.Debug("bean built", slog.String("bean", name), slog.String("definition", d.Name()))
		return instance, nil
	})
	return nil
}

// LoadDefinitions defines every definition unit in l and registers it.
func (c *Container) LoadDefinitions(l *vm.Loader) ([]*vm.Definition, error) {
	var defs []*vm.Definition
	for _, name := range l.Definitions() {
		d, err := l.Define(name)
		if err != nil {
			return nil, err
		}
		if err := c.RegisterDefinition(d, d.AnnotationMetadata().Qualifier()); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (c *Container) ContainsBean(_ *vm.ResolutionContext, t model.TypeRef, qualifier *model.TypeRef) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.names[BeanName(t, qualifier)]
	return ok
}

func (c *Container) GetBean(rc *vm.ResolutionContext, t model.TypeRef, qualifier *model.TypeRef) (any, error) {
	name := BeanName(t, qualifier)
	c.mu.Lock()
	_, known := c.names[name]
	_, cycle := c.building[name]
	c.mu.Unlock()
	if !known {
		return nil, fmt.Errorf("%w: %s", vm.ErrNoSuchBean, name)
	}
	if cycle {
		return nil, fmt.Errorf("%w: %s", ErrCircular, rc.Path())
	}
	return do.InvokeNamed[any](c.injector, name)
}

func (c *Container) GetProperty(_ *vm.ResolutionContext, key string, t model.TypeRef) (any, bool, error) {
	if !c.props.IsSet(key) {
		return nil, false, nil
	}
	switch t {
	case model.Bool:
		return c.props.GetBool(key), true, nil
	case model.Int:
		return c.props.GetInt(key), true, nil
	case model.Int64:
		return c.props.GetInt64(key), true, nil
	case model.Float64:
		return c.props.GetFloat64(key), true, nil
	case model.String:
		return c.props.GetString(key), true, nil
	case model.Duration:
		return c.props.GetDuration(key), true, nil
	case model.StringArray:
		return c.props.GetStringSlice(key), true, nil
	}
	return c.props.Get(key), true, nil
}

func (c *Container) ContainsProperty(_ *vm.ResolutionContext, key string) bool {
	return c.props.IsSet(key)
}

func (c *Container) ContainsProperties(_ *vm.ResolutionContext, prefix string) bool {
	if c.props.IsSet(prefix) {
		return true
	}
	prefix = strings.ToLower(prefix) + "."
	for _, k := range c.props.AllKeys() {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Close disposes built beans in reverse build order, then shuts the
// injector down.
func (c *Container) Close() error {
	c.mu.Lock()
	built := c.built
	c.built = nil
	c.mu.Unlock()

	var errs []error
	for i := len(built) - 1; i >= 0; i-- {
		b := built[i]
		if _, err := b.def.Dispose(vm.NewResolutionContext(b.def.BeanType()), c, b.instance); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s: %w", b.def.Name(), err))
		}
	}
	if err := c.injector.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
