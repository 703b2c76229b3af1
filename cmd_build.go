package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jorenham/compatbuild/pkg/build"
	"github.com/jorenham/compatbuild/pkg/cliutil"
	"github.com/jorenham/compatbuild/pkg/index"
	"github.com/jorenham/compatbuild/pkg/pipeline"
	"github.com/jorenham/compatbuild/pkg/validate"
)

func init() {
	var (
		keep        bool
		always      bool
		matrixFile  string
		rootDir     string
		projectsDir string
		outDir      string
		indexURL    string
		uvTool      string
	)
	cmd := &cobra.Command{
		Use:   "build [flags]",
		Short: "Generate, build, validate, and classify every bracket",
		Long: "For each bracket of the build matrix, in order: generate the project " +
			"source tree, build it with `uv build`, validate the wheel in a throwaway " +
			"venv, and compare the artifact hashes against the package index.  Artifacts " +
			"that are byte-identical to the latest published build of their bracket are " +
			"deleted; the paths worth publishing are printed to stdout.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(flags *cobra.Command, _ []string) error {
			ctx := flags.Context()

			m, err := loadMatrix(matrixFile)
			if err != nil {
				return err
			}

			opts := pipeline.Options{
				Matrix:      m,
				RootDir:     rootDir,
				ProjectsDir: projectsDir,
				OutDir:      outDir,
				Keep:        keep,
				SkipIndex:   always,
				Silent:      flagSilent,
				Index:       index.Client{BaseURL: indexURL},
			}
			if uvTool != "" {
				opts.Builder = build.Builder{Tool: []string{uvTool, "build"}, OutDir: outDir, Silent: flagSilent}
				opts.Validator = validate.Validator{UV: uvTool, Silent: flagSilent}
			}

			summary, err := pipeline.Run(ctx, opts)
			if err != nil {
				return err
			}
			for _, path := range summary.ToPublish() {
				fmt.Fprintln(flags.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false,
		"Retain the generated project directories after the run")
	cmd.Flags().BoolVar(&always, "always", false,
		"Keep every artifact unconditionally; do not query the package index")
	cmd.Flags().StringVar(&matrixFile, "matrix", "",
		"Read the build matrix from `IN_YAML_FILE` instead of using the built-in matrix")
	cmd.Flags().StringVar(&rootDir, "root-dir", ".",
		"Directory holding the LICENSE and README.md to bundle")
	cmd.Flags().StringVar(&projectsDir, "projects-dir", "projects",
		"Directory to generate project source trees under")
	cmd.Flags().StringVar(&outDir, "out-dir", "dist",
		"Directory to place built artifacts in")
	cmd.Flags().StringVar(&indexURL, "index-url", index.PyPIBaseURL,
		"Package index to check published hashes against")
	cmd.Flags().StringVar(&uvTool, "uv", "",
		"Path to the uv executable (default: \"uv\" from $PATH)")
	argparser.AddCommand(cmd)
}
