package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solomia/solomia/internal/model"
)

// GetPlan returns the user's per-category target amounts, ordered by category
// name. Users with no plan get an empty slice.
func (s *SQLiteStorage) GetPlan(ctx context.Context, userID string) ([]model.PlanEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cu.user_id, cu.category_id, c.name, cu.amount_grams
		FROM category_to_user cu
		JOIN categories c ON c.id = cu.category_id
		WHERE cu.user_id = ?
		ORDER BY c.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	defer rows.Close()

	var entries []model.PlanEntry
	for rows.Next() {
		var entry model.PlanEntry
		if err := rows.Scan(&entry.UserID, &entry.CategoryID, &entry.CategoryName, &entry.AmountGrams); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan entries: %w", err)
	}

	return entries, nil
}

// SetPlanAmount upserts the user's target amount for one category.
func (s *SQLiteStorage) SetPlanAmount(ctx context.Context, userID string, categoryID int, grams float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if grams < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidGrams, grams)
	}

	if _, err := s.GetCategoryByID(ctx, categoryID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_to_user (user_id, category_id, amount_grams)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, category_id) DO UPDATE SET amount_grams = excluded.amount_grams`,
		userID, categoryID, grams)
	if err != nil {
		return fmt.Errorf("failed to set plan amount: %w", err)
	}

	slog.Debug("set plan amount", "user_id", userID, "category_id", categoryID, "grams", grams)
	return nil
}
