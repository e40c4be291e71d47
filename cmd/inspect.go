package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cmmoran/beandefgen/internal/sink"
	"github.com/cmmoran/beandefgen/pkg/action/inspect"
)

func init() {
	rootCmd.AddCommand(NewInspectCommand())
}

func NewInspectCommand() *cobra.Command {
	var format string

	var inspectCmd = &cobra.Command{
		Use:     "inspect [unit...]",
		Short:   "inspect compiled units",
		Long:    "Load compiled units, verify them and summarize their definitions; with unit names, print their listings",
		PreRunE: bindConfig,
		RunE: func(c *cobra.Command, args []string) (err error) {
			opts := compileOptions()
			store, err := sink.Open(opts.OutDir, opts.Database)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, store.Close())
			}()

			out := c.OutOrStdout()
			if len(args) > 0 {
				for _, name := range args {
					text, err := inspect.Listing(store, name)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintln(out, text); err != nil {
						return err
					}
				}
				return nil
			}

			s, err := inspect.Inspect(store)
			if err != nil {
				return err
			}
			switch format {
			case "text":
				_, err = fmt.Fprint(out, s.String())
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				err = enc.Encode(s)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err = enc.Encode(s); err == nil {
					err = enc.Close()
				}
			default:
				err = fmt.Errorf("unknown format %q", format)
			}
			return err
		},
	}
	sinkFlags(inspectCmd)
	inspectCmd.Flags().StringVarP(&format, "format", "f", "text", "summary format (text, json, yaml)")

	return inspectCmd
}
