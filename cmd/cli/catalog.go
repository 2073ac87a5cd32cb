package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"agent-market/internal/data"
	"agent-market/internal/model"
	"agent-market/internal/oracle"
)

func newDispositionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispositions",
		Short: "List trader dispositions",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, _ := cmd.Flags().GetBool("prompts")
			out := cmd.OutOrStdout()
			for _, d := range model.Dispositions() {
				fmt.Fprintln(out, d)
				if prompts {
					fmt.Fprintf(out, "  %s\n\n", oracle.SystemPrompt(d))
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("prompts", false, "Also print the system prompt sent to language models")
	return cmd
}

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = data.DefaultScenarioDir()
			}
			list, err := data.ListScenarios(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-14s %-24s %s\n", "id", "name", "path")
			for _, s := range list {
				fmt.Fprintf(out, "%-14s %-24s %s\n", s.ID, s.Name, filepath.ToSlash(s.Path))
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Scenario directory (default $SCENARIO_DIR or ./examples/scenarios)")
	return cmd
}
