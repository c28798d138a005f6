package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modcheck-dev/modcheck/internal/catalog"
	"github.com/modcheck-dev/modcheck/internal/config"
	"github.com/modcheck-dev/modcheck/internal/workspace"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the modcheck environment",
	Long: `Diagnose common configuration and environment problems before they
show up as confusing check failures.

This command checks for:
- A readable project root
- A parseable module manifest with a valid catalog
- The configured container runtime on PATH
- A writable run-history location

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Critical failures that prevent modcheck from running`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running modcheck environment checks...\n\n")

		var failures, critical []string

		fmt.Printf("%s Project root\n", cyan("→"))
		anchor, err := workspace.New(rootFlag)
		if err != nil {
			critical = append(critical, fmt.Sprintf("project root: %v", err))
			fmt.Printf("  %s %v\n", red("✗"), err)
			finishDoctor(failures, critical)
		}
		fmt.Printf("  %s %s\n", green("✓"), anchor.Root())

		fmt.Printf("%s Configuration\n", cyan("→"))
		cfg, err := config.Load(anchor.Root())
		if err != nil {
			critical = append(critical, fmt.Sprintf("configuration: %v", err))
			fmt.Printf("  %s %v\n", red("✗"), err)
			finishDoctor(failures, critical)
		}
		fmt.Printf("  %s parallelism %d, runtime %s\n", green("✓"), cfg.Parallelism, cfg.ContainerCLI)

		fmt.Printf("%s Module manifest\n", cyan("→"))
		manifestPath := filepath.Join(anchor.Root(), cfg.ManifestPath)
		if manifestFlag != "" {
			manifestPath = manifestFlag
		}
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			critical = append(critical, fmt.Sprintf("manifest: %v", err))
			fmt.Printf("  %s cannot read %s\n", red("✗"), manifestPath)
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
			finishDoctor(failures, critical)
		}
		cat, _, err := catalog.Load(data)
		if err != nil {
			critical = append(critical, fmt.Sprintf("catalog: %v", err))
			fmt.Printf("  %s %v\n", red("✗"), err)
			finishDoctor(failures, critical)
		}
		fmt.Printf("  %s %s: %d operations, %d checks\n",
			green("✓"), cat.Module(), len(cat.Operations()), len(cat.Checks()))

		fmt.Printf("%s Container runtime\n", cyan("→"))
		if path, err := exec.LookPath(cfg.ContainerCLI); err != nil {
			failures = append(failures, fmt.Sprintf("container runtime %q not found on PATH", cfg.ContainerCLI))
			fmt.Printf("  %s %q not found on PATH\n", red("✗"), cfg.ContainerCLI)
		} else {
			fmt.Printf("  %s %s\n", green("✓"), path)
		}

		fmt.Printf("%s Run history\n", cyan("→"))
		historyDir := filepath.Dir(filepath.Join(anchor.Root(), cfg.HistoryPath))
		if err := os.MkdirAll(historyDir, 0755); err != nil {
			failures = append(failures, fmt.Sprintf("history directory: %v", err))
			fmt.Printf("  %s cannot create %s\n", red("✗"), historyDir)
		} else {
			fmt.Printf("  %s %s\n", green("✓"), historyDir)
		}

		finishDoctor(failures, critical)
	},
}

func finishDoctor(failures, critical []string) {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Println()
	switch {
	case len(critical) > 0:
		fmt.Printf("%s Critical failures prevent modcheck from running\n", red("✗"))
		os.Exit(2)
	case len(failures) > 0:
		fmt.Printf("%s %d check(s) failed\n", red("✗"), len(failures))
		os.Exit(1)
	default:
		fmt.Printf("%s All checks passed\n", green("✓"))
		os.Exit(0)
	}
}

func init() {
	doctorCmd.Flags().Bool("verbose", false, "show full error detail")
	rootCmd.AddCommand(doctorCmd)
}
