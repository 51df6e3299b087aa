package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/solomia/solomia/internal/model"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Parse and classify a food diary report from stdin",
		Long: `Read a free-form daily food report from stdin, extract the products with
their estimated amounts, classify each one, and optionally save the result
as the day's report for a user.

Example:
  echo "сніданок: вівсянка 40г, 2 яйця, банан" | solomia report --save --user 12345678`,
		RunE: runReport,
	}

	cmd.Flags().Bool("save", false, "Persist the classified report")
	cmd.Flags().String("user", "", "Telegram ID of the report's owner (required with --save)")
	cmd.Flags().String("date", "", "Report date as YYYY-MM-DD (default: today)")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	save, _ := cmd.Flags().GetBool("save")
	telegramID, _ := cmd.Flags().GetString("user")
	dateStr, _ := cmd.Flags().GetString("date")

	if save && telegramID == "" {
		telegramID = viper.GetString("report.default_user")
	}
	if save && telegramID == "" {
		return fmt.Errorf("--save requires --user (or report.default_user in config)")
	}

	date := time.Now()
	if dateStr != "" {
		var err error
		if date, err = time.Parse("2006-01-02", dateStr); err != nil {
			return fmt.Errorf("invalid --date %q: %w", dateStr, err)
		}
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read report from stdin: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fmt.Errorf("empty report")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	_, _, ingestor, err := initPipeline(store)
	if err != nil {
		return err
	}

	items, err := ingestor.ClassifyReport(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to classify report: %w", err)
	}
	if len(items) == 0 {
		cmd.Println("No food items found in the report.")
		return nil
	}

	printItems(cmd, items)

	if !save {
		return nil
	}

	user, err := store.GetOrCreateUser(ctx, telegramID, "")
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	report, err := ingestor.SaveReport(ctx, user.ID, date, items)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	cmd.Printf("\nSaved report %s for %s (%d items).\n",
		report.ID, date.Format("2006-01-02"), len(report.Items))
	return nil
}

func printItems(cmd *cobra.Command, items []model.ClassifiedItem) {
	for _, item := range items {
		amount := "?"
		if item.AmountGrams != nil {
			amount = fmt.Sprintf("%.0fг", *item.AmountGrams)
		}
		if item.Resolved() {
			cmd.Printf("  %-30s %6s  %s (%s)\n", item.Product, amount, item.Category, item.MatchedBy)
		} else {
			cmd.Printf("  %-30s %6s  %s\n", item.Product, amount, item.Category)
		}
	}
}
