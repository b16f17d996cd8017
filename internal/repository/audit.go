package repository

import (
	"context"
	"fmt"

	"photo-social-backend/internal/models"
)

// AdminLogRepository appends audit records
type AdminLogRepository struct {
	store Store
}

// NewAdminLogRepository creates a new admin log repository
func NewAdminLogRepository(store Store) *AdminLogRepository {
	return &AdminLogRepository{store: store}
}

// Append writes an audit record and returns its path
func (r *AdminLogRepository) Append(ctx context.Context, entry *models.AdminLog) (string, error) {
	data := map[string]any{
		"type":         entry.Type,
		"status":       entry.Status,
		"source":       entry.Source,
		"deletedCount": entry.Deleted,
		"errorCount":   entry.Errors,
		"createdAt":    entry.CreatedAt,
	}
	if entry.TriggeredBy != "" {
		data["triggeredBy"] = entry.TriggeredBy
	}
	if entry.Error != "" {
		data["error"] = entry.Error
		data["stack"] = entry.Stack
	}
	path, err := r.store.Add(ctx, models.AdminLogsCollection, data)
	if err != nil {
		return "", fmt.Errorf("failed to append admin log: %w", err)
	}
	return path, nil
}
