package parser

import (
	"fmt"
	"log/slog"

	"github.com/cmmoran/beandefgen/internal/writer"
	"github.com/cmmoran/beandefgen/pkg/parser"
)

// Builder replays beans into writers.
type Builder struct {
	opts *parser.Options
	log  *slog.Logger
}

func NewBuilder(opts *parser.Options, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{opts: opts, log: log}
}

// Build drives a fresh writer through b's points and finalizes it.
func (bd *Builder) Build(b *Bean) (*writer.Writer, error) {
	wopts := []writer.Option{
		writer.WithLogger(bd.log.With(slog.String("bean", b.Type.String()))),
		writer.WithSuffix(bd.opts.Suffix),
	}
	if b.Name != "" {
		wopts = append(wopts, writer.WithName(b.Name))
	}
	if b.Interface {
		wopts = append(wopts, writer.WithInterface())
	}
	w := writer.New(b.Type, b.Metadata, wopts...)

	if err := bd.replay(w, b); err != nil {
		if b.Source != "" {
			return nil, fmt.Errorf("%s: %w", b.Source, err)
		}
		return nil, err
	}
	return w, nil
}

func (bd *Builder) replay(w *writer.Writer, b *Bean) error {
	if !b.SuperType.IsZero() {
		if err := w.SetSuperType(b.SuperType); err != nil {
			return err
		}
	}
	switch {
	case b.Factory != nil:
		f := b.Factory
		if err := w.DeclareFactoryMethod(f.Type, f.Method, f.Metadata, f.Arguments); err != nil {
			return err
		}
	default:
		c := b.Constructor
		if c == nil {
			c = &EntryPoint{}
		}
		if err := w.DeclareConstructor(c.Metadata, c.RequiresReflection, c.Arguments); err != nil {
			return err
		}
	}

	for _, p := range b.Fields {
		if err := w.VisitFieldInjection(p); err != nil {
			return err
		}
	}
	for _, p := range b.Setters {
		if err := w.VisitSetterInjection(p); err != nil {
			return err
		}
	}
	for _, p := range b.Methods {
		if err := w.VisitMethodInjection(p); err != nil {
			return err
		}
	}
	for _, cb := range b.Builders {
		if err := w.BeginConfigBuilder(cb.ConfigBuilder); err != nil {
			return err
		}
		for _, m := range cb.Methods {
			if err := w.VisitConfigBuilderMethod(m); err != nil {
				return err
			}
		}
		if err := w.EndConfigBuilder(); err != nil {
			return err
		}
	}
	for _, p := range b.PostConstruct {
		if err := w.VisitPostConstruct(p); err != nil {
			return err
		}
	}
	for _, p := range b.PreDestroy {
		if err := w.VisitPreDestroy(p); err != nil {
			return err
		}
	}
	for _, e := range b.Executables {
		if _, err := w.VisitExecutableMethod(e); err != nil {
			return err
		}
	}
	for _, it := range b.Interfaces {
		if err := w.AddInterface(it); err != nil {
			return err
		}
	}
	if b.Validated {
		if err := w.SetValidated(true); err != nil {
			return err
		}
	}
	if b.RequiresMethodProcessing {
		if err := w.SetRequiresMethodProcessing(true); err != nil {
			return err
		}
	}
	return w.Finalize()
}
