package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solomia/solomia/internal/common"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <product>",
		Short: "Classify a single product name",
		Long: `Resolve one product name to a food category.

The product is matched against stored examples first, then by embedding
similarity. When neither clears the confidence threshold the generative
fallback decides, and its answer is learned for next time.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}

	cmd.Flags().Bool("no-fallback", false, "Skip the generative fallback for unknown products")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	noFallback, _ := cmd.Flags().GetBool("no-fallback")
	product := strings.Join(args, " ")

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	matcher, fallback, _, err := initPipeline(store)
	if err != nil {
		return err
	}

	result, err := matcher.ClassifyProduct(ctx, product)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	if result.IsKnown {
		cmd.Printf("%s → %s (%s, score %.3f)\n", result.Product, result.Category, result.MatchedBy, result.Score)
		return nil
	}

	if noFallback {
		if result.Category != "" {
			cmd.Printf("%s → unknown (closest: %s, score %.3f)\n", result.Product, result.Category, result.Score)
		} else {
			cmd.Printf("%s → unknown (no categories to compare against)\n", result.Product)
		}
		return nil
	}

	category, err := fallback.ClassifyUnknown(ctx, product)
	if err != nil {
		if errors.Is(err, common.ErrUnknownCategory) {
			cmd.Printf("%s → unknown (model answered outside the taxonomy)\n", result.Product)
			return nil
		}
		return fmt.Errorf("fallback classification failed: %w", err)
	}

	cmd.Printf("%s → %s (llm)\n", result.Product, category)
	return nil
}
