// Command vlc compiles visualization specifications from the command line.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("vlc: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := rootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(root.ErrOrStderr(), "error: ")
		root.PrintErrln(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var noColor bool
	root := &cobra.Command{
		Use:   "vlc",
		Short: "Compile visualization specifications to Vega",
		Long: `vlc validates and compiles declarative visualization specifications.

Field statistics for URL data can be read from a SQLite table with
--stats-db and --stats-table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	root.AddCommand(compileCmd(), validateCmd())
	return root
}
