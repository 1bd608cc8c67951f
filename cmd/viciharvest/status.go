package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/willowgs/viciharvest/internal/config"
	"github.com/willowgs/viciharvest/internal/database"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show crawl state from previous harvest runs",
		Long: `Status reports what previous harvest runs have accomplished.

It reads the local state database and prints how many titles are
completed, failed, or still only discovered, plus the failed titles
with their error kinds so they can be retried or investigated.

Examples:
  # Show crawl state
  viciharvest status

  # Show failed titles only
  viciharvest status --failed`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().BoolP("failed", "f", false,
		"List only failed titles and their error kinds")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	failedOnly, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return err
	}

	// Never create an empty database just to report on it.
	sdb, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no harvest state found (run 'viciharvest harvest' first): %w", err)
	}
	defer sdb.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !failedOnly {
		counts, err := sdb.StateCounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to read state counts: %w", err)
		}

		fmt.Fprintln(out, "Crawl state:")
		fmt.Fprintf(out, "  completed:  %d\n", counts["completed"])
		fmt.Fprintf(out, "  failed:     %d\n", counts["failed"])
		fmt.Fprintf(out, "  discovered: %d\n", counts["discovered"])
		fmt.Fprintln(out)
	}

	failed, err := sdb.FailedWorks(ctx)
	if err != nil {
		return fmt.Errorf("failed to read failed works: %w", err)
	}

	if len(failed) == 0 {
		fmt.Fprintln(out, "No failed titles.")
		return nil
	}

	titles := make([]string, 0, len(failed))
	for title := range failed {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	fmt.Fprintln(out, "Failed titles:")
	for _, title := range titles {
		fmt.Fprintf(out, "  [%s] %s\n", failed[title], title)
	}

	return nil
}
