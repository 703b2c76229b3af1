package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jorenham/compatbuild/pkg/cliutil"
	"github.com/jorenham/compatbuild/pkg/matrix"
)

func loadMatrix(matrixFile string) (matrix.Matrix, error) {
	if matrixFile == "" {
		return matrix.Default(), nil
	}
	return matrix.Load(matrixFile)
}

func init() {
	var matrixFile string
	cmd := &cobra.Command{
		Use:   "list [flags]",
		Short: "Print the build matrix and its derived names",
		Args:  cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(flags *cobra.Command, _ []string) error {
			m, err := loadMatrix(matrixFile)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(flags.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "DIST\tNUMPY\tPYTHON\tCONSTANT")
			for _, p := range m.Projects() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					p.DistName(), p.NumpyRange, p.PythonRange, p.ConstName())
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&matrixFile, "matrix", "",
		"Read the build matrix from `IN_YAML_FILE` instead of using the built-in matrix")
	argparser.AddCommand(cmd)
}
