package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jorenham/compatbuild/pkg/cliutil"
)

func init() {
	var projectsDir string
	cmd := &cobra.Command{
		Use:   "clean [flags]",
		Short: "Remove generated project source trees",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			return os.RemoveAll(projectsDir)
		},
	}
	cmd.Flags().StringVar(&projectsDir, "projects-dir", "projects",
		"Directory the generated project source trees live under")
	argparser.AddCommand(cmd)
}
