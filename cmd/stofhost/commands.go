package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stof-engine/stof/host"
	"github.com/stof-engine/stof/value"
)

var (
	graphPath string
	callArgs  []string
	testFilter string
	exportOut string
	exportFmt string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&graphPath, "graph", "g", "", "path to a .bstf graph file to load before running")

	runCmd.Flags().StringVar(&callPath, "call", "", "call this graph path instead of running #[main] functions")
	runCmd.Flags().StringArrayVar(&callArgs, "arg", nil, "positional argument for --call (repeatable)")
	rootCmd.AddCommand(runCmd)

	testCmd.Flags().StringVar(&testFilter, "filter", "", "only run #[test] functions whose path contains this substring")
	rootCmd.AddCommand(testCmd)

	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (defaults to stdout)")
	exportCmd.Flags().StringVar(&exportFmt, "format", "bstf", "registered format identifier to export as")
	rootCmd.AddCommand(exportCmd)

	rootCmd.AddCommand(flushCmd)
}

var rootCmd = &cobra.Command{
	Use:   "stofhost",
	Short: "Embeddable graph/VM document engine host CLI",
}

func loadDocument() (*host.Document, error) {
	doc := host.New()
	if graphPath == "" {
		return doc, nil
	}
	data, err := os.ReadFile(graphPath)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	if err := doc.ImportBstf(data, ""); err != nil {
		return nil, fmt.Errorf("importing bstf: %w", err)
	}
	return doc, nil
}

var callPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run #[main] functions, or call a specific graph path",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}
		ctx := context.Background()
		if callPath != "" {
			vals := make([]value.Value, len(callArgs))
			for i, a := range callArgs {
				vals[i] = parseArgValue(a)
			}
			result, err := doc.CallPath(ctx, callPath, vals...)
			if err != nil {
				return err
			}
			fmt.Println(result.Display())
			return nil
		}
		result, err := doc.RunMain(ctx)
		if err != nil {
			return err
		}
		fmt.Println(result.Display())
		return nil
	},
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run #[test] functions and print a pass/fail report",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}
		report, err := doc.RunTests(context.Background(), testFilter)
		if err != nil {
			return err
		}
		fmt.Print(report.String())
		if report.Failed() > 0 {
			return fmt.Errorf("%d test(s) failed", report.Failed())
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the loaded graph through a registered format",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}
		data, err := doc.Export(exportFmt)
		if err != nil {
			return err
		}
		if exportOut == "" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(exportOut, data, 0o644)
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush-deadpool",
	Short: "Print the ids removed since the graph's last deadpool flush",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument()
		if err != nil {
			return err
		}
		pool := doc.FlushDeadpool()
		fmt.Printf("nodes: %v\n", pool.Nodes)
		fmt.Printf("data: %v\n", pool.Data)
		return nil
	},
}

// parseArgValue converts a CLI --arg string into a runtime value using
// the same tolerant precedence `Cast`-to-string parsing implies (spec
// §4.2 "string parsing is tolerant"): bool, then integer, then float,
// falling back to a bare string.
func parseArgValue(s string) value.Value {
	if s == "true" || s == "false" {
		return value.Bool(s == "true")
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return value.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return value.Float(f)
	}
	return value.Str(s)
}
