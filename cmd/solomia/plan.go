package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage per-user meal plans",
		Long:  `A meal plan records a target amount in grams per food category for one user.`,
	}

	cmd.PersistentFlags().String("user", "", "Telegram ID of the plan's owner")

	cmd.AddCommand(planShowCmd())
	cmd.AddCommand(planSetCmd())

	return cmd
}

func planShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show a user's meal plan",
		RunE:  runPlanShow,
	}
}

func planSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <grams>",
		Short: "Set the target amount for one category",
		Args:  cobra.ExactArgs(2),
		RunE:  runPlanSet,
	}
}

func runPlanShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	telegramID, _ := cmd.Flags().GetString("user")
	if telegramID == "" {
		return fmt.Errorf("--user is required")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("failed to load user %q: %w", telegramID, err)
	}

	plan, err := store.GetPlan(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	if len(plan) == 0 {
		cmd.Println("No plan entries yet. Use 'solomia plan set' to add one.")
		return nil
	}

	for _, entry := range plan {
		cmd.Printf("  %-40s %8.0fг\n", entry.CategoryName, entry.AmountGrams)
	}
	return nil
}

func runPlanSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	telegramID, _ := cmd.Flags().GetString("user")
	if telegramID == "" {
		return fmt.Errorf("--user is required")
	}

	grams, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid grams value %q: %w", args[1], err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetOrCreateUser(ctx, telegramID, "")
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	category, err := store.GetCategoryByName(ctx, args[0])
	if err != nil {
		return fmt.Errorf("unknown category %q: %w", args[0], err)
	}

	if err := store.SetPlanAmount(ctx, user.ID, category.ID, grams); err != nil {
		return fmt.Errorf("failed to set plan amount: %w", err)
	}

	cmd.Printf("%s → %.0fг\n", category.Name, grams)
	return nil
}
