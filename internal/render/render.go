// Package render emits a Go package embedding compiled units, so a program
// can load its definitions without reading a sink at runtime.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/dave/jennifer/jen"
	"golang.org/x/mod/modfile"
)

const unitPkg = "github.com/cmmoran/beandefgen/pkg/unit"

// FileName is the name of the rendered file inside its package directory.
const FileName = "units_gen.go"

var ErrNoModule = errors.New("no go.mod found")

// GoFile renders package pkgName holding units keyed by unit name.
func GoFile(pkgName string, units map[string][]byte) *jen.File {
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	f := jen.NewFile(pkgName)
	f.HeaderComment("Code generated by beandefgen. DO NOT EDIT.")

	lits := make([]jen.Code, len(names))
	for i, n := range names {
		lits[i] = jen.Lit(n)
	}
	f.Var().Id("unitNames").Op("=").Index().String().Values(lits...)

	f.Var().Id("compiledUnits").Op("=").Map(jen.String()).Index().Byte().Values(jen.DictFunc(func(d jen.Dict) {
		for _, n := range names {
			d[jen.Lit(n)] = jen.Index().Byte().Call(jen.Lit(string(units[n])))
		}
	}))

	unitSlice := jen.Index().Op("*").Qual(unitPkg, "Unit")
	f.Comment("Units decodes every compiled unit, in name order.")
	f.Func().Id("Units").Params().Params(unitSlice.Clone(), jen.Error()).Block(
		jen.Id("out").Op(":=").Make(unitSlice.Clone(), jen.Lit(0), jen.Len(jen.Id("unitNames"))),
		jen.For(jen.List(jen.Id("_"), jen.Id("name")).Op(":=").Range().Id("unitNames")).Block(
			jen.List(jen.Id("u"), jen.Err()).Op(":=").Qual(unitPkg, "Decode").Call(jen.Id("compiledUnits").Index(jen.Id("name"))),
			jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
			jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id("u")),
		),
		jen.Return(jen.Id("out"), jen.Nil()),
	)
	return f
}

// Render writes the rendered package source to w.
func Render(w io.Writer, pkgName string, units map[string][]byte) error {
	return GoFile(pkgName, units).Render(w)
}

// WriteDir renders into dir/FileName and returns the file path.
func WriteDir(dir, pkgName string, units map[string][]byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, FileName)
	if err := GoFile(pkgName, units).Save(p); err != nil {
		return "", fmt.Errorf("render %s: %w", p, err)
	}
	return p, nil
}

// ImportPath resolves the import path of dir from the nearest enclosing
// go.mod.
func ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for cur := abs; ; {
		data, err := os.ReadFile(filepath.Join(cur, "go.mod"))
		if err == nil {
			mod := modfile.ModulePath(data)
			if mod == "" {
				return "", fmt.Errorf("%w: %s has no module directive", ErrNoModule, cur)
			}
			rel, err := filepath.Rel(cur, abs)
			if err != nil {
				return "", err
			}
			if rel == "." {
				return mod, nil
			}
			return path.Join(mod, filepath.ToSlash(rel)), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("%w: above %s", ErrNoModule, abs)
		}
		cur = parent
	}
}
