package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/myfcd/harvester/internal/domain"
	"github.com/myfcd/harvester/internal/infrastructure/myfcd"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the catalogs the harvester knows, in merge order",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		renderSources(cmd.OutOrStdout(), myfcd.DefaultSources())
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderSources(out io.Writer, sources []domain.SourceConfig) {
	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Source", "Schema", "Identifier", "Listing"})
	for i, src := range sources {
		t.AppendRow(table.Row{i + 1, src.Name, src.Variant, src.IdentifierPattern, src.ListingURL})
	}
	t.Render()
}
