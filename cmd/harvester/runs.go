package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myfcd/harvester/internal/domain"
	"github.com/myfcd/harvester/internal/infrastructure/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show a recorded run from the SQLite store (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	if cfg.Output.Database == "" {
		return errors.New("no run store configured (output.database is empty)")
	}

	runStore, err := store.Open(cfg.Output.Database)
	if err != nil {
		return err
	}
	defer runStore.Close()

	ctx := cmd.Context()
	var summary *domain.RunSummary
	if len(args) == 1 {
		summary, err = runStore.Run(ctx, args[0])
	} else {
		summary, err = runStore.LatestRun(ctx)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		return fmt.Errorf("%w in %s", err, cfg.Output.Database)
	}
	if err != nil {
		return err
	}

	skipped, err := runStore.SkippedItems(ctx, summary.RunID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderSummary(out, *summary, skipped)
	fmt.Fprintf(out, "Started %s, finished %s\n",
		summary.StartedAt.Local().Format("2006-01-02 15:04:05"),
		summary.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}
