package engine

import (
	"context"
	"errors"

	"github.com/solomia/solomia/internal/common"
	"github.com/solomia/solomia/internal/embedding"
	"github.com/solomia/solomia/internal/model"
	"github.com/solomia/solomia/internal/service"
)

// SeedCategory is one curated taxonomy entry with its starter examples.
type SeedCategory struct {
	Name     string
	Examples []string
}

// DefaultCategories is the curated food taxonomy the store is seeded with.
// The set is closed: classification never invents categories beyond it.
var DefaultCategories = []SeedCategory{
	{"Бобові", []string{"квасоля", "сочевиця", "нут"}},
	{"Картопля / Кукурудза", []string{"картопля", "кукурудза свіжа"}},
	{"Крупи / Зернові", []string{"гречка", "рис", "булгур", "пластівці", "овес"}},
	{"Хліб / Макарони / Борошно", []string{"макарони твердих сортів", "цільнозерновий хліб", "лаваш"}},
	{"Молочні продукти", []string{"молоко", "кефір", "йогурт", "сир"}},
	{"Білкові продукти (мʼясо, риба, яйця)", []string{"курка", "риба", "телятина", "яйця", "морепродукти"}},
	{"Овочі, зелень, гриби", []string{"капуста", "огірки", "гриби", "помідори", "зелень"}},
	{"Олії / Жири", []string{"олія", "авокадо", "майонез", "гірчиця"}},
	{"Фрукти / Ягоди", []string{"яблуко", "банан", "виноград", "манго"}},
	{"Горіхи / Насіння", []string{"волоський горіх", "мигдаль", "насіння гарбуза"}},
	{"Снеки / Солодке / Будь-чого", []string{"печиво", "шоколад", "ковбаса"}},
}

// SeedCategoryEntry creates one seed category with a freshly computed
// embedding. Returns false without error when the category already exists.
func SeedCategoryEntry(ctx context.Context, storage service.Storage, embedder embedding.Provider, seed SeedCategory) (bool, error) {
	_, err := storage.GetCategoryByName(ctx, seed.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	var vec []float64
	err = common.WithRetry(ctx, func() error {
		var embedErr error
		vec, embedErr = embedder.Embed(ctx, model.EmbeddingText(seed.Name, seed.Examples))
		return embedErr
	}, defaultRetryOptions)
	if err != nil {
		return false, err
	}

	if _, err := storage.CreateCategory(ctx, seed.Name, seed.Examples, vec); err != nil {
		return false, err
	}
	return true, nil
}
