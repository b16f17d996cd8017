package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-social-backend/internal/models"
)

// ShortLinkRepository handles short link documents keyed by code
type ShortLinkRepository struct {
	store Store
}

// NewShortLinkRepository creates a new short link repository
func NewShortLinkRepository(store Store) *ShortLinkRepository {
	return &ShortLinkRepository{store: store}
}

func shortLinkPath(code string) string {
	return DocPath(models.ShortLinksCollection, code)
}

// Exists checks if a code is taken
func (r *ShortLinkRepository) Exists(ctx context.Context, code string) (bool, error) {
	_, err := r.store.Get(ctx, shortLinkPath(code))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check short link: %w", err)
}

// Create stores a short link
func (r *ShortLinkRepository) Create(ctx context.Context, link *models.ShortLink) error {
	data := map[string]any{
		models.FieldLongURL:       link.LongURL,
		models.FieldCreatedBy:     link.CreatedBy,
		models.FieldCreatedByName: link.CreatedByName,
		models.FieldCreatedAt:     link.CreatedAt,
		models.FieldClicks:        link.Clicks,
		models.FieldIsActive:      link.IsActive,
	}
	if link.CustomImageURL != "" {
		data[models.FieldCustomImageURL] = link.CustomImageURL
	}
	if err := r.store.Set(ctx, shortLinkPath(link.ShortCode), data); err != nil {
		return fmt.Errorf("failed to create short link: %w", err)
	}
	return nil
}

// GetByCode retrieves a short link
func (r *ShortLinkRepository) GetByCode(ctx context.Context, code string) (*models.ShortLink, error) {
	doc, err := r.store.Get(ctx, shortLinkPath(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get short link: %w", err)
	}
	return models.ShortLinkFromData(doc.ID, doc.Data), nil
}

// RecordClick stores the new click count and access time
func (r *ShortLinkRepository) RecordClick(ctx context.Context, code string, clicks int, at time.Time) error {
	err := r.store.Update(ctx, shortLinkPath(code), map[string]any{
		models.FieldClicks:       clicks,
		models.FieldLastAccessed: at,
	})
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}
