// Command recommend prints recommendations from a snapshot without running the API server.
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
		Use:   "recommend",
		Short: "Rank investors and companies from a profile snapshot",
		Long: `recommend loads the configured snapshot and scorers and prints
recommendations for one seeker or provider.

Configuration comes from --config, or from config/<ENV>.yaml when unset.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Skip the Redis embedding cache")

	rootCmd.AddCommand(
		newSeekerCmd(),
		newProviderCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}
