package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/beandefgen/pkg/action/compile"
	"github.com/cmmoran/beandefgen/pkg/action/snapshot"
	"github.com/cmmoran/beandefgen/pkg/parser"
)

func init() {
	rootCmd.AddCommand(NewCompileCommand())
}

var flagKeys = map[string]string{
	"input-directory":    "compile.in_dir",
	"output-directory":   "compile.out_dir",
	"suffix":             "compile.suffix",
	"database":           "compile.database",
	"emit-go":            "compile.emit_go",
	"go-package":         "compile.go_package",
	"go-directory":       "compile.go_dir",
	"exclude-deprecated": "compile.exclude_deprecated",
	"exclude-types":      "compile.exclude_types",
	"parallelism":        "compile.parallelism",
	"manifest":           "compile.manifest",
}

// bindConfig ties the compile.* config keys to the flags c defines. It runs
// before the command so only the executing command's flags are bound.
func bindConfig(c *cobra.Command, _ []string) error {
	for flag, key := range flagKeys {
		if f := c.Flags().Lookup(flag); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// sinkFlags are shared by every command reading compiled units.
func sinkFlags(c *cobra.Command) {
	flags := c.Flags()
	flags.StringP("output-directory", "o", "beandefs", "directory compiled units are written to")
	flags.String("database", "", "sqlite file; units are stored in it instead of the output directory")
}

func compileFlags(c *cobra.Command) {
	sinkFlags(c)
	flags := c.Flags()
	flags.StringP("input-directory", "i", ".", "directory scanned for *.bean.yaml descriptions")
	flags.StringP("suffix", "s", "Definition", "suffix appended to definition names")
	flags.Bool("emit-go", false, "render a Go package embedding the compiled units")
	flags.String("go-package", "beandefs", "package name of the rendered Go package")
	flags.String("go-directory", "", "directory of the rendered Go package, <output-directory>/<go-package> when empty")
	flags.BoolP("exclude-deprecated", "d", false, "skip beans annotated Deprecated")
	flags.StringSliceP("exclude-types", "t", []string{}, "skip bean types by simple or qualified name")
	flags.Int("parallelism", 0, "concurrent writers, GOMAXPROCS when zero")
}

// compileOptions reads the compile.* keys.
func compileOptions() *parser.Options {
	o := &parser.Options{
		InDir:             viper.GetString("compile.in_dir"),
		OutDir:            viper.GetString("compile.out_dir"),
		Suffix:            viper.GetString("compile.suffix"),
		Database:          viper.GetString("compile.database"),
		EmitGo:            viper.GetBool("compile.emit_go"),
		GoPackage:         viper.GetString("compile.go_package"),
		GoDir:             viper.GetString("compile.go_dir"),
		ExcludeDeprecated: viper.GetBool("compile.exclude_deprecated"),
		ExcludeTypes:      viper.GetStringSlice("compile.exclude_types"),
		Manifest:          viper.GetString("compile.manifest"),
		Parallelism:       viper.GetInt("compile.parallelism"),
	}
	o.Normalize()
	return o
}

func NewCompileCommand() *cobra.Command {
	var name, ver string

	var compileCmd = &cobra.Command{
		Use:     "compile",
		Short:   "compile bean descriptions",
		Long:    "Compile every *.bean.yaml description into definition units and write them to the sink",
		PreRunE: bindConfig,
		RunE: func(c *cobra.Command, args []string) error {
			opts := compileOptions()
			if ver != "" {
				file, err := snapshot.Generate(c.Context(), opts, name, ver)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(c.OutOrStdout(), "snapshot %s %s recorded in %s\n", name, ver, file)
				return err
			}

			res, err := compile.Generate(c.Context(), opts)
			if err != nil {
				return err
			}
			for _, d := range res.Definitions {
				if _, err := fmt.Fprintln(c.OutOrStdout(), d); err != nil {
					return err
				}
			}
			if res.GoFile != "" {
				_, err = fmt.Fprintf(c.OutOrStdout(), "rendered %s %s\n", res.GoFile, res.ImportPath)
			}
			return err
		},
	}
	compileFlags(compileCmd)
	compileCmd.Flags().StringVar(&ver, "snapshot", "", "record the compiled listing as this snapshot version")
	compileCmd.Flags().StringVar(&name, "snapshot-name", "beans", "snapshot name recorded in the manifest")
	compileCmd.Flags().String("manifest", "", "snapshot manifest, <output-directory>/manifest.yaml when empty")

	return compileCmd
}
