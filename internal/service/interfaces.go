// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/solomia/solomia/internal/model"
)

// EmbeddingRegenerator recomputes a category's embedding from its name and
// full example list. Storage calls it inside LearnExample so the stored
// vector stays consistent with the example set.
type EmbeddingRegenerator func(ctx context.Context, name string, examples []string) ([]float64, error)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*model.Category, error)
	GetCategoryByExample(ctx context.Context, product string) (*model.Category, error)
	GetCategoriesWithEmbeddings(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string, examples []string, embedding []float64) (*model.Category, error)
	LearnExample(ctx context.Context, categoryID int, example string, regen EmbeddingRegenerator) error

	// User operations
	GetOrCreateUser(ctx context.Context, telegramID, name string) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID string) (*model.User, error)

	// Report operations
	GetReportByDate(ctx context.Context, userID string, date time.Time) (*model.Report, error)
	SaveReport(ctx context.Context, userID string, date time.Time, items []model.ClassifiedItem) (*model.Report, error)
	GetReportItems(ctx context.Context, reportID string) ([]model.ReportItem, error)

	// Meal plan operations
	GetPlan(ctx context.Context, userID string) ([]model.PlanEntry, error)
	SetPlanAmount(ctx context.Context, userID string, categoryID int, grams float64) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
