package parser

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cmmoran/beandefgen/pkg/unit"
)

// DescriptionExt marks the files a compile run reads.
const DescriptionExt = ".bean.yaml"

// Options control loading descriptions and writing compiled units.
//
// InDir             – directory scanned recursively for *.bean.yaml files
// OutDir            – directory sink for compiled units, unless Database is set
// Suffix            – definition name suffix, `Definition` when empty
// ExcludeDeprecated – skip beans annotated Deprecated
// ExcludeTypes      – bean types to skip, by simple or qualified name (case-insensitive)
// EmitGo            – also render a Go package embedding the units
// GoDir             – directory of the rendered package, OutDir/<GoPackage> when empty
// GoPackage         – name of the rendered package
// Database          – sqlite file; when set, units are stored in table compiled_units
// Manifest          – snapshot manifest path
// Parallelism       – concurrent writers, GOMAXPROCS when zero
type Options struct {
	InDir             string   `json:"in_dir,omitempty" yaml:"in_dir,omitempty" toml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	OutDir            string   `json:"out_dir,omitempty" yaml:"out_dir,omitempty" toml:"out_dir,omitempty" mapstructure:"out_dir,omitempty"`
	Suffix            string   `json:"suffix,omitempty" yaml:"suffix,omitempty" toml:"suffix,omitempty" mapstructure:"suffix,omitempty"`
	ExcludeDeprecated bool     `json:"exclude_deprecated,omitempty" yaml:"exclude_deprecated,omitempty" toml:"exclude_deprecated,omitempty" mapstructure:"exclude_deprecated,omitempty"`
	ExcludeTypes      []string `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" toml:"exclude_types,omitempty" mapstructure:"exclude_types,omitempty"`
	EmitGo            bool     `json:"emit_go,omitempty" yaml:"emit_go,omitempty" toml:"emit_go,omitempty" mapstructure:"emit_go,omitempty"`
	GoDir             string   `json:"go_dir,omitempty" yaml:"go_dir,omitempty" toml:"go_dir,omitempty" mapstructure:"go_dir,omitempty"`
	GoPackage         string   `json:"go_package,omitempty" yaml:"go_package,omitempty" toml:"go_package,omitempty" mapstructure:"go_package,omitempty"`
	Database          string   `json:"database,omitempty" yaml:"database,omitempty" toml:"database,omitempty" mapstructure:"database,omitempty"`
	Manifest          string   `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty" mapstructure:"manifest,omitempty"`
	Parallelism       int      `json:"parallelism,omitempty" yaml:"parallelism,omitempty" toml:"parallelism,omitempty" mapstructure:"parallelism,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		InDir:     ".",
		OutDir:    "beandefs",
		Suffix:    unit.DefinitionSuffix,
		GoPackage: "beandefs",
	}
}

func (o *Options) Normalize() {
	if o.InDir == "" {
		o.InDir = "."
	}
	if strings.Contains(o.InDir, ".") {
		o.InDir, _ = filepath.Abs(o.InDir)
	}
	if len(o.OutDir) == 0 {
		o.OutDir = "beandefs"
	}
	if strings.Contains(o.OutDir, ".") {
		o.OutDir, _ = filepath.Abs(o.OutDir)
	}
	if o.Suffix == "" {
		o.Suffix = unit.DefinitionSuffix
	}
	if o.GoPackage == "" {
		o.GoPackage = "beandefs"
	}
	if o.GoDir == "" {
		o.GoDir = filepath.Join(o.OutDir, o.GoPackage)
	}
	if o.Manifest == "" {
		o.Manifest = filepath.Join(o.OutDir, "manifest.yaml")
	}
	if o.Parallelism <= 0 {
		o.Parallelism = runtime.GOMAXPROCS(0)
	}
	for i, t := range o.ExcludeTypes {
		o.ExcludeTypes[i] = strings.TrimSpace(t)
	}
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInDir(d string) Option      { return func(o *Options) { o.InDir = d } }
func WithOutDir(d string) Option     { return func(o *Options) { o.OutDir = d } }
func WithSuffix(s string) Option     { return func(o *Options) { o.Suffix = s } }
func WithDatabase(dsn string) Option { return func(o *Options) { o.Database = dsn } }
func WithManifest(p string) Option   { return func(o *Options) { o.Manifest = p } }
func WithParallelism(n int) Option   { return func(o *Options) { o.Parallelism = n } }
func WithEmitGo(dir, pkg string) Option {
	return func(o *Options) { o.EmitGo, o.GoDir, o.GoPackage = true, dir, pkg }
}
func WithExcludeDeprecated() Option { return func(o *Options) { o.ExcludeDeprecated = true } }
func WithExcludeTypes(names ...string) Option {
	return func(o *Options) {
		for _, n := range names {
			o.ExcludeTypes = append(o.ExcludeTypes, strings.TrimSpace(n))
		}
	}
}

// Apply builds normalized options from defaults and opts.
func Apply(opts ...Option) *Options {
	o := NewOptions()
	for _, fn := range opts {
		fn(o)
	}
	o.Normalize()
	return o
}
