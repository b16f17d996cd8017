package repository

import (
	"context"
	"fmt"

	"photo-social-backend/internal/models"
)

// CategoryRepository handles category documents and their member lists
type CategoryRepository struct {
	store Store
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(store Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

// CategoryPath returns the document path of a category
func CategoryPath(id string) string {
	return DocPath(models.CategoriesCollection, id)
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	data := map[string]any{
		models.FieldName:  category.Name,
		models.FieldMates: append([]string(nil), category.Mates...),
	}
	if err := r.store.Set(ctx, CategoryPath(category.ID), data); err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// WithMate returns every category listing userID as a mate
func (r *CategoryRepository) WithMate(ctx context.Context, userID string) ([]*models.Category, error) {
	docs, err := r.store.Find(ctx, Collection(models.CategoriesCollection).Where(models.FieldMates, OpArrayContains, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get categories by mate: %w", err)
	}
	categories := make([]*models.Category, 0, len(docs))
	for _, doc := range docs {
		categories = append(categories, models.CategoryFromData(doc.ID, doc.Data))
	}
	return categories, nil
}

// RemoveMate drops userID from the category and deletes the category when no
// mates remain. It reports whether the category was deleted.
func (r *CategoryRepository) RemoveMate(ctx context.Context, category *models.Category, userID string) (bool, error) {
	remaining := make([]string, 0, len(category.Mates))
	for _, mate := range category.Mates {
		if mate != userID {
			remaining = append(remaining, mate)
		}
	}

	if len(remaining) == 0 {
		if err := r.store.Delete(ctx, CategoryPath(category.ID)); err != nil {
			return false, fmt.Errorf("failed to delete category: %w", err)
		}
		return true, nil
	}

	if err := r.store.Update(ctx, CategoryPath(category.ID), map[string]any{models.FieldMates: remaining}); err != nil {
		return false, fmt.Errorf("failed to update category mates: %w", err)
	}
	category.Mates = remaining
	return false, nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	doc, err := r.store.Get(ctx, CategoryPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return models.CategoryFromData(doc.ID, doc.Data), nil
}
