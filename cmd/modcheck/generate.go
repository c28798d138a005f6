package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modcheck-dev/modcheck/internal/builtin"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Regenerate the SDK tree from a schema document",
	Long: `Feed a schema-introspection document to the configured generator and
produce a fresh SDK tree. The source tree is resolved from the project
root; the output lands in a new directory (or --out).

The manifest must declare an operation with handler "generate"; that
operation is invoked regardless of the name it was declared under.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		schema, _ := cmd.Flags().GetString("schema")
		out, _ := cmd.Flags().GetString("out")

		h, err := loadHost()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		opName, err := h.handlerOp(builtin.HandlerGenerate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		result, err := h.invoker.Invoke(cmd.Context(), opName,
			map[string]interface{}{"schema": schema}, h.anchor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		h.record(cmd.Context(), result)

		if !result.Succeeded() {
			printResult(result)
			os.Exit(result.ExitCode())
		}
		if result.Artifacts == nil {
			fmt.Fprintf(os.Stderr, "Error: generate produced no output tree\n")
			os.Exit(2)
		}

		dest := result.Artifacts.Root()
		if out != "" {
			if err := copyTree(dest, out); err != nil {
				fmt.Fprintf(os.Stderr, "Error: copying generated tree: %v\n", err)
				os.Exit(2)
			}
			dest = out
		}
		fmt.Printf("%s generated %s\n", color.New(color.FgGreen).Sprint("✓"), dest)
	},
}

var verifyGeneratedCmd = &cobra.Command{
	Use:   "verify-generated",
	Short: "Check the committed SDK tree matches fresh generation",
	Long: `Regenerate from the schema document and structurally diff the result
against the committed SDK tree. Any divergence is reported as drift,
listing every differing path.

The manifest must declare an operation with handler "verify-generated";
that operation is invoked regardless of the name it was declared under.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		schema, _ := cmd.Flags().GetString("schema")

		h, err := loadHost()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		opName, err := h.handlerOp(builtin.HandlerVerifyGenerated)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		result, err := h.invoker.Invoke(cmd.Context(), opName,
			map[string]interface{}{"schema": schema}, h.anchor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		h.record(cmd.Context(), result)
		printResult(result)
		os.Exit(result.ExitCode())
	},
}

// copyTree copies a generated output tree to a caller-chosen destination.
func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		// Keep the source mode so executables survive the copy.
		outFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
		if err != nil {
			return err
		}
		defer outFile.Close()
		_, err = io.Copy(outFile, in)
		return err
	})
}

func init() {
	generateCmd.Flags().String("schema", "", "schema introspection document (host path)")
	generateCmd.Flags().String("out", "", "copy the generated tree here")
	_ = generateCmd.MarkFlagRequired("schema")

	verifyGeneratedCmd.Flags().String("schema", "", "schema introspection document (host path)")
	_ = verifyGeneratedCmd.MarkFlagRequired("schema")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(verifyGeneratedCmd)
}
