// Package compile turns a directory of bean descriptions into compiled units.
package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	iparser "github.com/cmmoran/beandefgen/internal/parser"
	"github.com/cmmoran/beandefgen/internal/render"
	"github.com/cmmoran/beandefgen/internal/sink"
	"github.com/cmmoran/beandefgen/internal/writer"
	"github.com/cmmoran/beandefgen/pkg/parser"
)

// Result describes one compile run.
type Result struct {
	// Definitions holds the primary unit names, sorted.
	Definitions []string
	// Units maps every written unit name to its encoded form.
	Units map[string][]byte
	// Excluded lists bean types skipped by the options.
	Excluded []string
	// Properties lists the configuration properties builders read, sorted
	// by path.
	Properties []writer.Property
	// GoFile and ImportPath are set when a Go package was rendered.
	GoFile     string
	ImportPath string
}

// Names returns the written unit names, sorted.
func (r *Result) Names() []string {
	out := make([]string, 0, len(r.Units))
	for name := range r.Units {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Generate compiles every description under opts.InDir. Writers run in
// parallel, one per bean; the first failure cancels the rest.
func Generate(ctx context.Context, opts *parser.Options) (res *Result, err error) {
	log := slog.Default().With(slog.String("action", "compile"))

	p, err := iparser.NewWithOpts(opts)
	if err != nil {
		return nil, err
	}
	p.WithLogger(log)
	if err := p.Parse(); err != nil {
		return nil, err
	}

	store, err := sink.Open(p.Opts.OutDir, p.Opts.Database)
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	mem := sink.NewMemorySink()
	out := sink.Tee(store, mem)

	var (
		mu    sync.Mutex
		defs  = make([]string, 0, len(p.Beans))
		props []writer.Property
	)
	builder := p.Builder()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Opts.Parallelism)
	for _, b := range p.Beans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := builder.Build(b)
			if err != nil {
				return err
			}
			if err := w.WriteTo(out); err != nil {
				return fmt.Errorf("%s: %w", b.Source, err)
			}
			mu.Lock()
			defs = append(defs, w.Name())
			props = append(props, w.Properties()...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(defs)

	sort.SliceStable(props, func(i, j int) bool { return props[i].Path < props[j].Path })

	res = &Result{Definitions: defs, Units: map[string][]byte{}, Properties: props}
	for _, b := range p.Excluded {
		res.Excluded = append(res.Excluded, b.Type.String())
	}
	names, err := mem.Names()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if res.Units[name], err = mem.Load(name); err != nil {
			return nil, err
		}
	}

	if p.Opts.EmitGo {
		if res.GoFile, err = render.WriteDir(p.Opts.GoDir, p.Opts.GoPackage, res.Units); err != nil {
			return nil, err
		}
		if res.ImportPath, err = render.ImportPath(p.Opts.GoDir); err != nil {
			log.Warn("rendered package is outside a module", slog.String("dir", p.Opts.GoDir), slog.Any("error", err))
			err = nil
		}
	}

	log.Info("compile finished",
		slog.Int("definitions", len(res.Definitions)),
		slog.Int("units", len(res.Units)),
		slog.Int("properties", len(res.Properties)),
		slog.Int("excluded", len(res.Excluded)))
	return res, nil
}
