package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/myfcd/harvester/config"
	"github.com/myfcd/harvester/internal/domain"
	"github.com/myfcd/harvester/internal/infrastructure/export"
	"github.com/myfcd/harvester/internal/infrastructure/myfcd"
	"github.com/myfcd/harvester/internal/infrastructure/store"
	"github.com/myfcd/harvester/internal/usecase"
)

// errStrict is returned under --strict when the run was incomplete
var errStrict = errors.New("run finished with skipped items or failed sources")

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Scrape the catalogs and export the unified food table",
	Long: `harvest discovers the detail pages of each selected source, fetches and
normalizes every page, merges the per-source tables (later sources win on a
shared food name) and writes the result to the output directory.

A page that cannot be fetched or parsed is skipped and reported; a source
whose listing cannot be read is reported and the others are still merged.`,
	RunE: runHarvest,
}

func init() {
	addHarvestFlags(harvestCmd)
	rootCmd.AddCommand(harvestCmd)
}

func addHarvestFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("sources", nil, "sources to harvest (current, industry, 1997)")
	cmd.Flags().String("out-dir", "", "directory for exported files")
	cmd.Flags().StringSlice("formats", nil, "export formats (csv, json, yaml)")
	cmd.Flags().Int("workers", 0, "detail pages fetched at once per source (1-8)")
	cmd.Flags().Duration("delay", 0, "minimum gap between requests under the fixed-delay policy")
	cmd.Flags().Bool("strict", false, "exit non-zero when any item was skipped or any source failed")
	cmd.Flags().Bool("no-db", false, "do not record the run in the SQLite store")
}

// applyHarvestFlags overrides configuration with the flags given on the command line
func applyHarvestFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("sources") {
		cfg.Harvest.Sources, _ = flags.GetStringSlice("sources")
	}
	if flags.Changed("out-dir") {
		cfg.Output.Dir, _ = flags.GetString("out-dir")
	}
	if flags.Changed("formats") {
		cfg.Output.Formats, _ = flags.GetStringSlice("formats")
	}
	if flags.Changed("workers") {
		cfg.Harvest.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("delay") {
		cfg.RateLimit.Policy = myfcd.PolicyFixedDelay
		cfg.RateLimit.Delay, _ = flags.GetDuration("delay")
	}
	if noDB, _ := flags.GetBool("no-db"); noDB {
		cfg.Output.Database = ""
	}
	return config.Validate(cfg)
}

func newClient(cfg *config.Config) (*myfcd.Client, error) {
	client, err := myfcd.NewClient(myfcd.ClientConfig{
		UserAgent:  cfg.HTTP.UserAgent,
		Timeout:    cfg.HTTP.Timeout,
		MaxRetries: cfg.HTTP.MaxRetries,
		Headers:    cfg.HTTP.Headers,
		RatePolicy: myfcd.RatePolicy{
			Kind:              cfg.RateLimit.Policy,
			Delay:             cfg.RateLimit.Delay,
			RequestsPerSecond: cfg.RateLimit.RPS,
			Burst:             cfg.RateLimit.Burst,
		},
	})
	if err != nil {
		return nil, err
	}
	client.SetDebug(cfg.HTTP.Debug)
	return client, nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	if err := applyHarvestFlags(cmd, cfg); err != nil {
		return err
	}
	strict, _ := cmd.Flags().GetBool("strict")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sources, err := myfcd.SelectSources(cfg.Harvest.Sources)
	if err != nil {
		return err
	}
	formats, err := export.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	harvester := usecase.NewHarvester(client, usecase.HarvesterConfig{Workers: cfg.Harvest.Workers})
	run, err := usecase.NewPipeline(harvester).Run(ctx, sources)
	if run == nil {
		return err
	}
	out := cmd.OutOrStdout()
	renderSummary(out, run.Summary(), skippedItems(run))
	if err != nil {
		return err
	}

	paths, err := export.WriteFiles(cfg.Output.Dir, cfg.Output.Basename, formats, run.Table)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Wrote %s\n", p)
	}

	if cfg.Output.Database != "" {
		if err := saveRun(ctx, cfg.Output.Database, run); err != nil {
			return err
		}
		fmt.Fprintf(out, "Recorded run %s in %s\n", run.RunID, cfg.Output.Database)
	}

	if strict && run.HasFailures() {
		return errStrict
	}
	return nil
}

func saveRun(ctx context.Context, path string, run *domain.RunResult) error {
	runStore, err := store.Open(path)
	if err != nil {
		return err
	}
	defer runStore.Close()

	return runStore.SaveRun(ctx, run)
}

// renderSummary prints per-source counts and every skipped item
func renderSummary(out io.Writer, summary domain.RunSummary, skipped []domain.SkippedItem) {
	t := newTable(out)
	t.SetTitle("Run %s", summary.RunID)
	t.AppendHeader(table.Row{"Source", "Discovered", "Harvested", "Skipped", "Error"})
	for _, s := range summary.Sources {
		t.AppendRow(table.Row{s.Source, s.Discovered, s.Harvested, s.Skipped, s.Error})
	}
	t.AppendFooter(table.Row{"Unified", "", summary.Foods, "", ""})
	t.Render()

	if len(skipped) == 0 {
		return
	}

	st := newTable(out)
	st.SetTitle("Skipped items")
	st.AppendHeader(table.Row{"Identifier", "Stage", "Reason"})
	for _, item := range skipped {
		st.AppendRow(table.Row{item.Identifier, item.Stage, item.Reason()})
	}
	st.Render()
}

// skippedItems collects the skipped items of every source in run order
func skippedItems(run *domain.RunResult) []domain.SkippedItem {
	var skipped []domain.SkippedItem
	for _, s := range run.Sources {
		skipped = append(skipped, s.Skipped...)
	}
	return skipped
}
