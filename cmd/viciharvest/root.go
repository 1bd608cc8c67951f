// Package main provides the entry point for the viciharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for viciharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viciharvest",
		Short: "Harvester for Latin works on la.wikisource.org",
		Long: `viciharvest downloads Latin literary works from la.wikisource.org.

It classifies each requested page as a single work or a chapter index,
resolves index pages to their chapter subpages, and fetches clean plain
text through the Wikimedia export tool with a raw-markup fallback.
Crawl state is persisted so interrupted runs resume where they left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
