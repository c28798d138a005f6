// modcheck discovers the callable operations a plugin module exports,
// lists the ones eligible to run as checks, and executes them against a
// project root inside sandboxed containers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// rootFlag is the project root anchor. It is supplied exactly once,
	// here, and threaded explicitly through every layer below.
	rootFlag string

	// manifestFlag overrides the manifest path from configuration.
	manifestFlag string
)

var rootCmd = &cobra.Command{
	Use:   "modcheck",
	Short: "Discover and run a module's checks against a project root",
	Long: `modcheck loads a module manifest, catalogs the operations it declares,
and exposes the zero-required-argument subset as discoverable checks.

Checks execute inside sandboxed containers with the project's trees
mounted explicitly; nothing a check runs can see the host beyond what
was resolved from the project root you pass with --root.

Exit codes:
  0 - success
  1 - a check ran and failed (lint failure, drift, unimplemented body)
  2 - the tooling broke (sandbox provisioning, resolution, bad arguments)`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "project root the module's checks run against")
	rootCmd.PersistentFlags().StringVar(&manifestFlag, "manifest", "", "module manifest path (default: <root>/module.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
