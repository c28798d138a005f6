package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modcheck-dev/modcheck/internal/invoke"
	"github.com/modcheck-dev/modcheck/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [check]",
	Short: "Show recent check runs",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		h, err := loadHost()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}

		store, err := storage.Open(filepath.Join(h.anchor.Root(), h.cfg.HistoryPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		defer store.Close()

		operation := ""
		if len(args) == 1 {
			operation = args[0]
		}
		runs, err := store.Recent(cmd.Context(), operation, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		for _, r := range runs {
			mark := green("✓")
			detail := ""
			if r.Status != invoke.StatusSuccess {
				mark = red("✗")
				detail = fmt.Sprintf(" [%s]", r.Kind)
			}
			fmt.Printf("%s %s  %s%s  (%s)\n",
				mark, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Operation, detail, r.Duration.Round(timeUnit))
		}
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum runs to show")
	rootCmd.AddCommand(historyCmd)
}
