// Package parser loads bean descriptions from *.bean.yaml files and replays
// them into definition writers.
package parser

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cmmoran/beandefgen/pkg/parser"
)

// Parser holds state/results of a parse run.
type Parser struct {
	Opts parser.Options

	Beans    []*Bean
	Excluded []*Bean

	log *slog.Logger
}

// New builds a parser from functional options.
func New(opts ...parser.Option) (*Parser, error) {
	return NewWithOpts(parser.Apply(opts...))
}

func NewWithOpts(opts *parser.Options) (*Parser, error) {
	opts.Normalize()
	if fi, err := os.Stat(opts.InDir); err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("input directory: %s is not a directory", opts.InDir)
	}
	return &Parser{Opts: *opts, log: slog.Default()}, nil
}

// WithLogger replaces the logger used during Parse.
func (p *Parser) WithLogger(l *slog.Logger) *Parser {
	p.log = l
	return p
}

// Builder returns a builder sharing p's options.
func (p *Parser) Builder() *Builder { return NewBuilder(&p.Opts, p.log) }

// Files lists description files under InDir in lexical order.
func (p *Parser) Files() ([]string, error) {
	var out []string
	err := filepath.WalkDir(p.Opts.InDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), parser.DescriptionExt) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// Parse reads every description file, validates its beans and splits them
// into Beans and Excluded.
func (p *Parser) Parse() error {
	files, err := p.Files()
	if err != nil {
		return err
	}
	seen := map[string]string{}
	for _, path := range files {
		beans, err := p.ParseFile(path)
		if err != nil {
			return err
		}
		for _, b := range beans {
			key := b.Type.String() + "/" + b.Name
			if prev, ok := seen[key]; ok {
				return fmt.Errorf("%w: %s: bean %s already described in %s", ErrInvalidDescription, path, b.Type, prev)
			}
			seen[key] = path
			if p.Opts.Excludes(b.Type, b.Metadata) {
				p.log.Debug("bean excluded", slog.String("bean", b.Type.String()), slog.String("file", path))
				p.Excluded = append(p.Excluded, b)
				continue
			}
			p.Beans = append(p.Beans, b)
		}
	}
	p.log.Info("descriptions parsed", slog.Int("files", len(files)), slog.Int("beans", len(p.Beans)), slog.Int("excluded", len(p.Excluded)))
	return nil
}

// ParseFile decodes one description file.
func (p *Parser) ParseFile(path string) ([]*Bean, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	beans, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, b := range beans {
		b.Source = path
	}
	return beans, nil
}

// Decode reads a description document. Unknown keys are rejected.
func Decode(r io.Reader) ([]*Bean, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}
	out := make([]*Bean, 0, len(f.Beans))
	for i, d := range f.Beans {
		b, err := ToBean(fmt.Sprintf("beans[%d]", i), d)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
