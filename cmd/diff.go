package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/beandefgen/pkg/action/snapshot"
)

func init() {
	rootCmd.AddCommand(NewDiffCommand())
}

func NewDiffCommand() *cobra.Command {
	var from, to string

	var diffCmd = &cobra.Command{
		Use:     "diff",
		Short:   "diff recorded snapshots",
		Long:    "Compare the listings of two recorded snapshots, the previous and current ones by default",
		PreRunE: bindConfig,
		RunE: func(c *cobra.Command, args []string) error {
			path := compileOptions().Manifest

			var (
				diff string
				err  error
			)
			if from == "" && to == "" {
				diff, err = snapshot.DiffCurrentWithPrevious(path)
			} else {
				m, lerr := snapshot.List(path)
				if lerr != nil {
					return lerr
				}
				if from == "" {
					from = m.PreviousVersion
				}
				if to == "" {
					to = m.CurrentVersion
				}
				diff, err = snapshot.Diff(m, from, to)
			}
			if err != nil {
				return err
			}
			if diff == "" {
				_, err = fmt.Fprintln(c.OutOrStdout(), "no changes")
				return err
			}
			_, err = fmt.Fprint(c.OutOrStdout(), diff)
			return err
		},
	}
	sinkFlags(diffCmd)
	diffCmd.Flags().String("manifest", "", "snapshot manifest, <output-directory>/manifest.yaml when empty")
	diffCmd.Flags().StringVar(&from, "from", "", "base snapshot version, the previous one when empty")
	diffCmd.Flags().StringVar(&to, "to", "", "compared snapshot version, the current one when empty")

	return diffCmd
}
