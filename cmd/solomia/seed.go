package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/solomia/solomia/internal/engine"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the curated food taxonomy",
		Long: `Create the curated food categories with their starter examples and compute
an embedding for each. Categories that already exist are left untouched, so
seeding an existing database is safe.`,
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	embedder, err := initEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	bar := progressbar.NewOptions(len(engine.DefaultCategories),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Seeding categories..."),
	)

	created := 0
	for _, seed := range engine.DefaultCategories {
		ok, seedErr := engine.SeedCategoryEntry(ctx, store, embedder, seed)
		if seedErr != nil {
			return fmt.Errorf("failed to seed category %q: %w", seed.Name, seedErr)
		}
		if ok {
			created++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	cmd.Printf("\nSeeded %d new categories (%d already present).\n",
		created, len(engine.DefaultCategories)-created)
	return nil
}
