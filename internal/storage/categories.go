package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/embedding"
	"github.com/solomia/solomia/internal/model"
	"github.com/solomia/solomia/internal/service"
)

// GetCategories returns the full taxonomy ordered by name. Embeddings are
// not decoded; use GetCategoriesWithEmbeddings for the matcher's snapshot.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, examples, created_at
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var examplesJSON string
		if err := rows.Scan(&cat.ID, &cat.Name, &examplesJSON, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if cat.Examples, err = decodeExamples(examplesJSON); err != nil {
			return nil, fmt.Errorf("category %q: %w", cat.Name, err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoriesWithEmbeddings returns a committed snapshot of every category
// together with its decoded embedding vector. Categories whose embedding is
// missing are returned with a nil vector; a malformed stored vector is a
// ParseError.
func (s *SQLiteStorage) GetCategoriesWithEmbeddings(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, examples, embedding, created_at
		FROM categories
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var examplesJSON string
		var embeddingJSON sql.NullString
		if err := rows.Scan(&cat.ID, &cat.Name, &examplesJSON, &embeddingJSON, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if cat.Examples, err = decodeExamples(examplesJSON); err != nil {
			return nil, fmt.Errorf("category %q: %w", cat.Name, err)
		}
		if embeddingJSON.Valid && embeddingJSON.String != "" {
			vector, decodeErr := embedding.DecodeVector(embeddingJSON.String, 0)
			if decodeErr != nil {
				return nil, fmt.Errorf("category %q: %w", cat.Name, decodeErr)
			}
			cat.Embedding = vector
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByName returns a category by its display name, or ErrNotFound.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	return s.getCategory(ctx, `WHERE name = ?`, name)
}

// GetCategoryByID returns a category by its id, or ErrNotFound.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	return s.getCategory(ctx, `WHERE id = ?`, id)
}

func (s *SQLiteStorage) getCategory(ctx context.Context, where string, arg any) (*model.Category, error) {
	var cat model.Category
	var examplesJSON string
	var embeddingJSON sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, examples, embedding, created_at
		FROM categories `+where, arg).Scan(
		&cat.ID, &cat.Name, &examplesJSON, &embeddingJSON, &cat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	if cat.Examples, err = decodeExamples(examplesJSON); err != nil {
		return nil, fmt.Errorf("category %q: %w", cat.Name, err)
	}
	if embeddingJSON.Valid && embeddingJSON.String != "" {
		vector, decodeErr := embedding.DecodeVector(embeddingJSON.String, 0)
		if decodeErr != nil {
			return nil, fmt.Errorf("category %q: %w", cat.Name, decodeErr)
		}
		cat.Embedding = vector
	}

	return &cat, nil
}

// GetCategoryByExample returns the first category listing product among its
// examples, or ErrNotFound. The scan is linear over all example lists, which
// is acceptable at taxonomy scale.
func (s *SQLiteStorage) GetCategoryByExample(ctx context.Context, product string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(product, "product"); err != nil {
		return nil, err
	}

	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	for i := range categories {
		if categories[i].HasExample(product) {
			return &categories[i], nil
		}
	}

	return nil, common.ErrNotFound
}

// CreateCategory inserts a new taxonomy entry with its starter examples and
// embedding. Duplicate names surface as ErrDuplicateEntry.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, examples []string, embeddingVec []float64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("%w: examples", ErrNilParameter)
	}

	examplesJSON, err := json.Marshal(examples)
	if err != nil {
		return nil, fmt.Errorf("failed to encode examples: %w", err)
	}

	var embeddingJSON any
	if len(embeddingVec) > 0 {
		encoded, encodeErr := embedding.EncodeVector(embeddingVec)
		if encodeErr != nil {
			return nil, encodeErr
		}
		embeddingJSON = encoded
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, examples, embedding, created_at)
		VALUES (?, ?, ?, ?)`,
		name, string(examplesJSON), embeddingJSON, now)
	if err != nil {
		if existing, getErr := s.GetCategoryByName(ctx, name); getErr == nil && existing != nil {
			return nil, fmt.Errorf("%w: category %q", common.ErrDuplicateEntry, name)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	slog.Info("created category", "name", name, "id", id, "examples", len(examples))

	return &model.Category{
		ID:        int(id),
		Name:      name,
		Examples:  examples,
		Embedding: embeddingVec,
		CreatedAt: now,
	}, nil
}

// LearnExample appends example to the category's example list and regenerates
// the stored embedding from the full updated list, as one logical unit.
// Updates are serialized per category; different categories may learn
// concurrently. A failed regeneration after a committed append is logged and
// tolerated: the stale embedding self-corrects on the next successful update.
func (s *SQLiteStorage) LearnExample(ctx context.Context, categoryID int, example string, regen service.EmbeddingRegenerator) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(example, "example"); err != nil {
		return err
	}
	if regen == nil {
		return fmt.Errorf("%w: regen", ErrNilParameter)
	}

	lock := s.categoryLock(categoryID)
	lock.Lock()
	defer lock.Unlock()

	example = model.NormalizeProduct(example)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var name, examplesJSON string
	err = tx.QueryRowContext(ctx,
		`SELECT name, examples FROM categories WHERE id = ?`, categoryID).
		Scan(&name, &examplesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read category: %w", err)
	}

	examples, err := decodeExamples(examplesJSON)
	if err != nil {
		return fmt.Errorf("category %q: %w", name, err)
	}

	cat := model.Category{Name: name, Examples: examples}
	if !cat.HasExample(example) {
		examples = append(examples, example)
		updated, marshalErr := json.Marshal(examples)
		if marshalErr != nil {
			return fmt.Errorf("failed to encode examples: %w", marshalErr)
		}
		if _, execErr := tx.ExecContext(ctx,
			`UPDATE categories SET examples = ? WHERE id = ?`,
			string(updated), categoryID); execErr != nil {
			return fmt.Errorf("failed to append example: %w", execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit example append: %w", err)
	}

	vector, err := regen(ctx, name, examples)
	if err != nil {
		slog.Warn("embedding regeneration failed, keeping stale embedding",
			"category", name,
			"example", example,
			"error", err)
		return nil
	}

	encoded, err := embedding.EncodeVector(vector)
	if err != nil {
		slog.Warn("embedding encode failed, keeping stale embedding",
			"category", name,
			"error", err)
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE categories SET embedding = ? WHERE id = ?`,
		encoded, categoryID); err != nil {
		slog.Warn("embedding store failed, keeping stale embedding",
			"category", name,
			"error", err)
		return nil
	}

	slog.Info("learned example",
		"category", name,
		"example", example,
		"examples_total", len(examples))
	return nil
}

// decodeExamples parses the stored JSON example list.
func decodeExamples(examplesJSON string) ([]string, error) {
	if examplesJSON == "" {
		return nil, nil
	}
	var examples []string
	if err := json.Unmarshal([]byte(examplesJSON), &examples); err != nil {
		return nil, common.NewParseError(examplesJSON, fmt.Errorf("malformed examples: %w", err))
	}
	return examples, nil
}
