package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage the food taxonomy",
	}

	cmd.AddCommand(categoriesListCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with their learned examples",
		RunE:  runCategoriesList,
	}

	cmd.Flags().Bool("examples", false, "Show the full example list per category")

	return cmd
}

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	showExamples, _ := cmd.Flags().GetBool("examples")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	categories, err := store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		cmd.Println("No categories yet. Run 'solomia seed' to create the taxonomy.")
		return nil
	}

	for _, cat := range categories {
		cmd.Printf("%3d  %-40s %d examples\n", cat.ID, cat.Name, len(cat.Examples))
		if showExamples && len(cat.Examples) > 0 {
			cmd.Printf("     %s\n", strings.Join(cat.Examples, ", "))
		}
	}
	return nil
}
