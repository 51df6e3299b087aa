package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/model"
)

// reportDateLayout normalizes report dates to calendar days.
const reportDateLayout = "2006-01-02"

// GetOrCreateUser returns the user registered under telegramID, creating the
// record on first contact.
func (s *SQLiteStorage) GetOrCreateUser(ctx context.Context, telegramID, name string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(telegramID, "telegramID"); err != nil {
		return nil, err
	}

	user, err := s.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	user = &model.User{
		ID:         uuid.New().String(),
		TelegramID: telegramID,
		Name:       name,
		CreatedAt:  time.Now(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, telegram_id, name, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.TelegramID, user.Name, user.CreatedAt)
	if err != nil {
		// Lost a race with a concurrent registration; the row is there now.
		if existing, getErr := s.GetUserByTelegramID(ctx, telegramID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("registered user", "telegram_id", telegramID, "name", name)
	return user, nil
}

// GetUserByTelegramID returns the user registered under telegramID, or
// ErrNotFound.
func (s *SQLiteStorage) GetUserByTelegramID(ctx context.Context, telegramID string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(telegramID, "telegramID"); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, name, created_at
		FROM users
		WHERE telegram_id = ?`, telegramID).
		Scan(&user.ID, &user.TelegramID, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GetReportByDate returns the user's report for the given calendar day with
// its items loaded, or ErrNotFound.
func (s *SQLiteStorage) GetReportByDate(ctx context.Context, userID string, date time.Time) (*model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var report model.Report
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, created_at
		FROM reports
		WHERE user_id = ? AND date = ?`,
		userID, date.Format(reportDateLayout)).
		Scan(&report.ID, &report.UserID, &report.Date, &report.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	if report.Items, err = s.GetReportItems(ctx, report.ID); err != nil {
		return nil, err
	}

	return &report, nil
}

// SaveReport persists the classified items as the user's report for the given
// day, replacing any earlier report for the same day. Items that resolved to
// a known category are linked by id; unresolved items keep a nil category.
func (s *SQLiteStorage) SaveReport(ctx context.Context, userID string, date time.Time, items []model.ClassifiedItem) (*model.Report, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items", ErrNilParameter)
	}

	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	idsByName := make(map[string]int, len(categories))
	for _, cat := range categories {
		idsByName[cat.Name] = cat.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	dateStr := date.Format(reportDateLayout)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM report_items
		WHERE report_id IN (SELECT id FROM reports WHERE user_id = ? AND date = ?)`,
		userID, dateStr); err != nil {
		return nil, fmt.Errorf("failed to clear report items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reports WHERE user_id = ? AND date = ?`,
		userID, dateStr); err != nil {
		return nil, fmt.Errorf("failed to clear report: %w", err)
	}

	report := &model.Report{
		ID:        uuid.New().String(),
		UserID:    userID,
		Date:      date,
		CreatedAt: time.Now(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reports (id, user_id, date, created_at)
		VALUES (?, ?, ?, ?)`,
		report.ID, report.UserID, dateStr, report.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	for _, item := range items {
		ri := model.ReportItem{
			ID:          uuid.New().String(),
			ReportID:    report.ID,
			ProductName: item.Product,
			AmountGrams: item.AmountGrams,
		}
		if item.Resolved() {
			ri.CategoryName = item.Category
			if id, ok := idsByName[item.Category]; ok {
				ri.CategoryID = &id
			}
		}

		var categoryID any
		if ri.CategoryID != nil {
			categoryID = *ri.CategoryID
		}
		var amount any
		if ri.AmountGrams != nil {
			amount = *ri.AmountGrams
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_items (id, report_id, product_name, amount_grams, category_id)
			VALUES (?, ?, ?, ?, ?)`,
			ri.ID, ri.ReportID, ri.ProductName, amount, categoryID); err != nil {
			return nil, fmt.Errorf("failed to save report item %q: %w", ri.ProductName, err)
		}
		report.Items = append(report.Items, ri)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit report: %w", err)
	}

	slog.Info("saved report",
		"user_id", userID,
		"date", dateStr,
		"items", len(report.Items))
	return report, nil
}

// GetReportItems returns the items of one report, with category names joined
// in for items that resolved.
func (s *SQLiteStorage) GetReportItems(ctx context.Context, reportID string) ([]model.ReportItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(reportID, "reportID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ri.id, ri.report_id, ri.product_name, ri.amount_grams, ri.category_id, c.name
		FROM report_items ri
		LEFT JOIN categories c ON c.id = ri.category_id
		WHERE ri.report_id = ?
		ORDER BY ri.rowid`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query report items: %w", err)
	}
	defer rows.Close()

	var items []model.ReportItem
	for rows.Next() {
		var item model.ReportItem
		var amount sql.NullFloat64
		var categoryID sql.NullInt64
		var categoryName sql.NullString
		if err := rows.Scan(&item.ID, &item.ReportID, &item.ProductName, &amount, &categoryID, &categoryName); err != nil {
			return nil, fmt.Errorf("failed to scan report item: %w", err)
		}
		if amount.Valid {
			v := amount.Float64
			item.AmountGrams = &v
		}
		if categoryID.Valid {
			id := int(categoryID.Int64)
			item.CategoryID = &id
		}
		if categoryName.Valid {
			item.CategoryName = categoryName.String
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report items: %w", err)
	}

	return items, nil
}
