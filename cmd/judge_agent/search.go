package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/hackathon-judge/internal/observability"
	"github.com/jonathan/hackathon-judge/internal/projectsearch"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Rank stored projects against a query",
	Long:  "Embeds every stored project and the query, builds a fresh index and prints the nearest projects with their distances.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var searchLimit int

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", projectsearch.DefaultLimit, "Maximum number of projects to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m, err := newModels(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	results, err := projectsearch.New(st, m.embedder).Search(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	observability.NewPrinter(os.Stdout).PrintSearchResults(args[0], results)
	return nil
}
