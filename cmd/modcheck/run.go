package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modcheck-dev/modcheck/internal/invoke"
)

// timeUnit is the rounding applied to durations in check output.
const timeUnit = time.Millisecond

var runCheckCmd = &cobra.Command{
	Use:   "run-check <name>",
	Short: "Run one operation by name",
	Long: `Run a single operation. Context-kind parameters not supplied with
--context or --arg are resolved from the project root through the
operation's declared default policy.

Examples:
  # Run a check with everything defaulted from --root
  modcheck run-check check-readme

  # Override the context a check examines
  modcheck run-check check-readme --context source=./other/sdk

  # Supply a required argument
  modcheck run-check describe --arg schema=./schema.json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		contexts, _ := cmd.Flags().GetStringArray("context")
		literals, _ := cmd.Flags().GetStringArray("arg")

		h, err := loadHost()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		opArgs, err := parseArgs(contexts, literals)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		result, err := h.invoker.Invoke(cmd.Context(), args[0], opArgs, h.anchor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		h.record(cmd.Context(), result)
		printResult(result)
		os.Exit(result.ExitCode())
	},
}

var runChecksCmd = &cobra.Command{
	Use:   "run-checks",
	Short: "Run every discoverable check",
	Long: `Run the module's full check set concurrently with bounded parallelism.
Each check gets its own sandbox and its own resolved contexts; one
failure never aborts the others. The exit code is the worst band any
check produced.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := loadHost()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		checks := h.catalog.Checks()
		if len(checks) == 0 {
			fmt.Printf("module %s declares no checks\n", h.catalog.Module())
			return
		}
		names := make([]string, len(checks))
		for i, c := range checks {
			names[i] = c.Name
		}

		results := invoke.RunChecks(cmd.Context(), h.invoker, names, h.anchor, h.cfg.Parallelism)
		h.record(cmd.Context(), results...)

		for _, r := range results {
			printResult(r)
		}

		passed := 0
		for _, r := range results {
			if r.Succeeded() {
				passed++
			}
		}
		fmt.Printf("\n%d/%d checks passed\n", passed, len(results))
		os.Exit(invoke.WorstExitCode(results))
	},
}

// parseArgs turns --context name=path and --arg name=value flags into the
// invoker's argument map.
func parseArgs(contexts, literals []string) (map[string]interface{}, error) {
	if len(contexts) == 0 && len(literals) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(contexts)+len(literals))
	for _, kv := range append(append([]string{}, contexts...), literals...) {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q is not name=value", kv)
		}
		out[name] = value
	}
	return out, nil
}

// printResult renders one result the way doctor-style tools do: a colored
// status mark, the check name, and the diagnostic indented below it.
func printResult(r *invoke.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	switch {
	case r.Succeeded():
		fmt.Printf("%s %s (%s)\n", green("✓"), r.Operation, r.Duration.Round(timeUnit))
	case r.ExitCode() == 1:
		fmt.Printf("%s %s [%s]\n", red("✗"), r.Operation, r.Kind)
	default:
		fmt.Printf("%s %s [%s]\n", yellow("!"), r.Operation, r.Kind)
	}
	if r.Message != "" {
		for _, line := range strings.Split(r.Message, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	if r.Artifacts != nil {
		fmt.Printf("    output: %s\n", r.Artifacts.Root())
	}
}

func init() {
	runCheckCmd.Flags().StringArray("context", nil, "explicit context for a parameter (name=path, repeatable)")
	runCheckCmd.Flags().StringArray("arg", nil, "explicit literal argument (name=value, repeatable)")
	rootCmd.AddCommand(runCheckCmd)
	rootCmd.AddCommand(runChecksCmd)
}
