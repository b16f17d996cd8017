package repository

import (
	"context"
	"fmt"

	"photo-social-backend/internal/models"

	"github.com/google/uuid"
)

// ContentRepository handles the records that hang off users and photos:
// comment records, reactions, audios and notifications.
type ContentRepository struct {
	store Store
}

// NewContentRepository creates a new content repository
func NewContentRepository(store Store) *ContentRepository {
	return &ContentRepository{store: store}
}

// ReactionsByUser selects reactions authored by a user in any photo
func (r *ContentRepository) ReactionsByUser(userID string) Query {
	return CollectionGroup(models.ReactionsCollection).Where(models.FieldUID, OpEq, userID)
}

// ReactionsByPhoto selects every reaction attached to a photo
func (r *ContentRepository) ReactionsByPhoto(photoID string) Query {
	return CollectionGroup(models.ReactionsCollection).Where(models.FieldPhotoID, OpEq, photoID)
}

// CommentsByRecorder selects comment records recorded by a user
func (r *ContentRepository) CommentsByRecorder(userID string) Query {
	return Collection(models.CommentRecordsCollection).Where(models.FieldRecorderUser, OpEq, userID)
}

// CommentsByPhoto selects comment records attached to a photo
func (r *ContentRepository) CommentsByPhoto(photoID string) Query {
	return Collection(models.CommentRecordsCollection).Where(models.FieldPhotoID, OpEq, photoID)
}

// AudiosByOwner selects audio records owned by a user
func (r *ContentRepository) AudiosByOwner(userID string) Query {
	return Collection(models.AudiosCollection).Where(models.FieldOwnerID, OpEq, userID)
}

// NotificationsByRecipient selects notifications addressed to a user
func (r *ContentRepository) NotificationsByRecipient(userID string) Query {
	return Collection(models.NotificationsCollection).Where(models.FieldRecipientUserID, OpEq, userID)
}

// NotificationsByActor selects notifications caused by a user
func (r *ContentRepository) NotificationsByActor(userID string) Query {
	return Collection(models.NotificationsCollection).Where(models.FieldActorUserID, OpEq, userID)
}

// CreateComment stores a comment record
func (r *ContentRepository) CreateComment(ctx context.Context, c *models.CommentRecord) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	data := map[string]any{
		models.FieldPhotoID:      c.PhotoID,
		models.FieldRecorderUser: c.RecorderUser,
	}
	if c.AudioURL != "" {
		data[models.FieldAudioURL] = c.AudioURL
	}
	c.Path = DocPath(models.CommentRecordsCollection, c.ID)
	if err := r.store.Set(ctx, c.Path, data); err != nil {
		return fmt.Errorf("failed to create comment record: %w", err)
	}
	return nil
}

// CreateReaction stores a reaction under its photo
func (r *ContentRepository) CreateReaction(ctx context.Context, photo *models.Photo, reaction *models.Reaction) error {
	if reaction.ID == "" {
		reaction.ID = uuid.New().String()
	}
	reaction.PhotoID = photo.ID
	reaction.Path = DocPath(PhotoPath(photo.CategoryID, photo.ID), models.ReactionsCollection, reaction.ID)
	data := map[string]any{
		models.FieldPhotoID: reaction.PhotoID,
		models.FieldUID:     reaction.UserID,
		models.FieldEmoji:   reaction.Emoji,
	}
	if err := r.store.Set(ctx, reaction.Path, data); err != nil {
		return fmt.Errorf("failed to create reaction: %w", err)
	}
	return nil
}

// CreateAudio stores an audio record
func (r *ContentRepository) CreateAudio(ctx context.Context, a *models.Audio) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Path = DocPath(models.AudiosCollection, a.ID)
	data := map[string]any{
		models.FieldOwnerID:  a.UserID,
		models.FieldAudioURL: a.AudioURL,
	}
	if err := r.store.Set(ctx, a.Path, data); err != nil {
		return fmt.Errorf("failed to create audio: %w", err)
	}
	return nil
}

// CreateNotification stores a notification
func (r *ContentRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	data := map[string]any{
		models.FieldRecipientUserID: n.RecipientUserID,
		models.FieldActorUserID:     n.ActorUserID,
	}
	if err := r.store.Set(ctx, DocPath(models.NotificationsCollection, n.ID), data); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
