package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tmplc/internal/diag"
	"tmplc/internal/globals"
	"tmplc/internal/source"
)

var globalsCmd = &cobra.Command{
	Use:   "globals",
	Short: "Inspect compile-time globals files",
}

var globalsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Report malformed lines in a globals file",
	Args:  cobra.ExactArgs(1),
	RunE:  runGlobalsCheck,
}

var globalsGenCmd = &cobra.Command{
	Use:   "gen <file>",
	Short: "Rewrite a globals file in canonical sorted form",
	Args:  cobra.ExactArgs(1),
	RunE:  runGlobalsGen,
}

func init() {
	globalsGenCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
	globalsCmd.AddCommand(globalsCheckCmd, globalsGenCmd)
}

// loadGlobalsFile parses path and prints its diagnostics, with source
// context, to stderr.
func loadGlobalsFile(cmd *cobra.Command, path string) (*globals.Globals, bool, error) {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, false, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	report := reportOptions{format: "pretty", withNotes: true}
	if report.color, err = colorEnabled(cmd, os.Stderr); err != nil {
		return nil, false, err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, false, fmt.Errorf("globals: %w", err)
	}
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	g, err := globals.Parse(bytes.NewReader(file.Content), file.Path, diag.BagReporter{Bag: bag})
	if err != nil {
		return nil, false, err
	}
	bag.Sort()
	if err := printDiagnostics(cmd, bag, fs, ".", report); err != nil {
		return nil, false, err
	}
	return g, !bag.HasErrors(), nil
}

func runGlobalsCheck(cmd *cobra.Command, args []string) error {
	g, ok, err := loadGlobalsFile(cmd, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return errBuildFailed
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d global(s)\n", args[0], g.Len())
	}
	return nil
}

func runGlobalsGen(cmd *cobra.Command, args []string) error {
	g, ok, err := loadGlobalsFile(cmd, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return errBuildFailed
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return globals.Generate(w, g)
}
