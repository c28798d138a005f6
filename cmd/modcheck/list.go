package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listChecksCmd = &cobra.Command{
	Use:   "list-checks",
	Short: "List the module's discoverable checks",
	Long: `List every operation the module exposes as a check: tagged "check"
and invocable with no arguments. Operations with required parameters are
callable through run-check with explicit arguments but never appear here.`,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := loadHost()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		checks := h.catalog.Checks()
		if len(checks) == 0 {
			fmt.Printf("module %s declares no checks\n", h.catalog.Module())
			return
		}

		fmt.Printf("%s (%d checks)\n", h.catalog.Module(), len(checks))
		for _, c := range checks {
			if c.Description != "" {
				fmt.Printf("  %s  %s\n", cyan(c.Name), c.Description)
			} else {
				fmt.Printf("  %s\n", cyan(c.Name))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(listChecksCmd)
}
