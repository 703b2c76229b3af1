// Command compatbuild generates, builds, validates, and incrementally
// publishes the numpy_typing_compat package matrix.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jorenham/compatbuild/pkg/cliutil"
)

var argparser = &cobra.Command{
	Use:   "compatbuild {[flags]|SUBCOMMAND...}",
	Short: "Build the numpy_typing_compat package matrix",

	Args: cliutil.OnlySubcommands,
	RunE: cliutil.RunSubcommands,

	SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
	SilenceUsage:  true, // our FlagErrorFunc will handle it
}

var (
	flagQuiet  bool
	flagSilent bool
)

func init() {
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false,
		"Only log warnings and errors")
	argparser.PersistentFlags().BoolVar(&flagSilent, "silent", false,
		"Only log errors, and do not relay build-tool output")
}

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors: term.IsTerminal(int(os.Stderr.Fd())),
	})
	argparser.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		switch {
		case flagSilent:
			logger.SetLevel(logrus.ErrorLevel)
		case flagQuiet:
			logger.SetLevel(logrus.WarnLevel)
		default:
			logger.SetLevel(logrus.InfoLevel)
		}
	}

	ctx := dlog.WithLogger(context.Background(), dlog.WrapLogrus(logger))

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(argparser.ErrOrStderr(), "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
