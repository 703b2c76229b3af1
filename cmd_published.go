package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jorenham/compatbuild/pkg/cliutil"
	"github.com/jorenham/compatbuild/pkg/index"
	"github.com/jorenham/compatbuild/pkg/publish"
)

func init() {
	var indexURL string
	cmd := &cobra.Command{
		Use:   "published [flags]",
		Short: "Print the retained previously-published-hash table",
		Long: "Query the package index for every published file of the package family, " +
			"and print, per bracket and artifact kind, the hash of the newest build.  " +
			"This is exactly the table that `compatbuild build` compares fresh artifacts " +
			"against.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(flags *cobra.Command, _ []string) error {
			ctx := flags.Context()
			history, err := publish.FetchHistory(ctx, index.Client{BaseURL: indexURL})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(flags.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "BRACKET\tKIND\tBUILD\tSHA256")
			for _, entry := range history.Entries() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					entry.Bracket, entry.Kind, entry.Build, entry.Hash)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&indexURL, "index-url", index.PyPIBaseURL,
		"Package index to query")
	argparser.AddCommand(cmd)
}
