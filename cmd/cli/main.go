package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Run the banana market simulation from the terminal",
		Long: `cli runs the agent market: a population of traders, each asking a decision
oracle (a rule engine or a language model) whether to buy, sell or hold
every step, while the price follows the net order flow.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (defaults apply when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "trace, debug, info, warn or error (overrides logging.level)")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newDispositionsCmd(),
		newScenariosCmd(),
	)
	return rootCmd
}
