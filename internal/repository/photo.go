package repository

import (
	"context"
	"fmt"
	"time"

	"photo-social-backend/internal/models"

	"github.com/google/uuid"
)

// PhotoRepository handles photo documents across all categories
type PhotoRepository struct {
	store Store
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(store Store) *PhotoRepository {
	return &PhotoRepository{store: store}
}

// PhotoPath returns the document path of a photo
func PhotoPath(categoryID, photoID string) string {
	return DocPath(models.CategoriesCollection, categoryID, models.PhotosCollection, photoID)
}

// Create creates a new photo
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if photo.ID == "" {
		photo.ID = uuid.New().String()
	}
	if photo.Status == "" {
		photo.Status = models.PhotoStatusActive
	}
	data := map[string]any{
		models.FieldCategoryID: photo.CategoryID,
		models.FieldUserID:     photo.UserID,
		models.FieldImageURL:   photo.ImageURL,
		models.FieldStatus:     photo.Status,
		models.FieldCreatedAt:  photo.CreatedAt,
	}
	if photo.AudioURL != "" {
		data[models.FieldAudioURL] = photo.AudioURL
	}
	if photo.DeletedAt != nil {
		data[models.FieldDeletedAt] = *photo.DeletedAt
	}
	photo.Path = PhotoPath(photo.CategoryID, photo.ID)
	if err := r.store.Set(ctx, photo.Path, data); err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// ByOwner returns every photo of a user, in any category and any state
func (r *PhotoRepository) ByOwner(ctx context.Context, userID string) ([]*models.Photo, error) {
	docs, err := r.store.Find(ctx, CollectionGroup(models.PhotosCollection).Where(models.FieldUserID, OpEq, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get photos by owner: %w", err)
	}
	return toPhotos(docs), nil
}

// DeletedBefore returns soft-deleted photos whose deletion time is at or before cutoff
func (r *PhotoRepository) DeletedBefore(ctx context.Context, cutoff time.Time) ([]*models.Photo, error) {
	q := CollectionGroup(models.PhotosCollection).
		Where(models.FieldStatus, OpEq, models.PhotoStatusDeleted).
		Where(models.FieldDeletedAt, OpLte, cutoff)
	docs, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get deleted photos: %w", err)
	}
	return toPhotos(docs), nil
}

// SoftDelete marks a photo deleted at the given time
func (r *PhotoRepository) SoftDelete(ctx context.Context, path string, at time.Time) error {
	err := r.store.Update(ctx, path, map[string]any{
		models.FieldStatus:    models.PhotoStatusDeleted,
		models.FieldDeletedAt: at,
	})
	if err != nil {
		return fmt.Errorf("failed to soft delete photo: %w", err)
	}
	return nil
}

// Delete permanently deletes a photo document
func (r *PhotoRepository) Delete(ctx context.Context, path string) error {
	if err := r.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

func toPhotos(docs []Document) []*models.Photo {
	photos := make([]*models.Photo, 0, len(docs))
	for _, doc := range docs {
		photos = append(photos, models.PhotoFromData(doc.ID, doc.Path, doc.Data))
	}
	return photos
}
