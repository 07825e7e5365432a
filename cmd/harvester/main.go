// Package main is the entry point of the harvester CLI: it scrapes the MyFCD
// food composition catalogs into one unified table and exports it.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/myfcd/harvester/config"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg is loaded before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Harvest the Malaysian Food Composition Database",
	Long: `harvester discovers every food detail page of the MyFCD catalogs
(current, industry and 1997), extracts each food's nutrient table and merges
them into one table keyed by food name, exported as CSV, JSON or YAML and
recorded in a SQLite run store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./harvester.yaml, ./config/harvester.yaml or /etc/myfcd-harvester/harvester.yaml)")

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
