package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/matthewbaird/vegalite/internal/compile"
	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/stats/sqlstats"
)

type compileFlags struct {
	out        string
	config     string
	statsDB    string
	statsTable string
	compact    bool
	verbose    bool
}

func compileCmd() *cobra.Command {
	var f compileFlags
	cmd := &cobra.Command{
		Use:   "compile <spec.json>",
		Short: "Compile a specification and print the Vega output",
		Long:  "Compile a specification. Use - to read it from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().StringVar(&f.config, "config", "", "JSON file overlaid on the default configuration")
	cmd.Flags().StringVar(&f.statsDB, "stats-db", "", "SQLite database holding the source data")
	cmd.Flags().StringVar(&f.statsTable, "stats-table", "", "Table summarized for field statistics")
	cmd.Flags().BoolVar(&f.compact, "compact", false, "Print compact JSON")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log warnings as they are recorded")
	cmd.MarkFlagsRequiredTogether("stats-db", "stats-table")
	return cmd
}

func runCompile(cmd *cobra.Command, path string, f compileFlags) error {
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	var opts compile.Options
	if f.config != "" {
		raw, err := os.ReadFile(f.config)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if opts.Config, err = spec.DefaultConfig().Overlay(raw); err != nil {
			return err
		}
	}
	if f.statsDB != "" {
		summary, err := sqlstats.Open(cmd.Context(), "sqlite", f.statsDB, f.statsTable)
		if err != nil {
			return err
		}
		opts.Stats = summary
	}
	if f.verbose {
		opts.Logger = log.New(cmd.ErrOrStderr(), "vlc: ", 0)
	}

	res, err := compile.CompileJSON(data, opts)
	if err != nil {
		return err
	}
	if !f.verbose {
		printWarnings(cmd.ErrOrStderr(), res.Warnings)
	}

	var out []byte
	if f.compact {
		out, err = json.Marshal(res.Spec)
	} else {
		out, err = json.MarshalIndent(res.Spec, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	out = append(out, '\n')

	if f.out == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(f.out, out, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec.json>...",
		Short: "Check specifications without compiling them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				data, err := readInput(cmd, path)
				if err == nil {
					_, err = compile.ValidateJSON(data)
				}
				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", color.RedString("✗"), path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("✓"), path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d specifications invalid", failed, len(args))
			}
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return data, err
}

func printWarnings(w io.Writer, warnings []compile.Warning) {
	yellow := color.New(color.FgYellow)
	for _, warn := range warnings {
		yellow.Fprintf(w, "warning: ")
		fmt.Fprintf(w, "%s %s\n", color.HiBlackString("[%s]", warn.Code), warn.Message)
	}
}
