package repository

import (
	"context"
	"errors"
	"fmt"

	"photo-social-backend/internal/models"
)

// UserRepository handles user documents and their friends sub-collection
type UserRepository struct {
	store Store
}

// NewUserRepository creates a new user repository
func NewUserRepository(store Store) *UserRepository {
	return &UserRepository{store: store}
}

// UserPath returns the document path of a user
func UserPath(userID string) string {
	return DocPath(models.UsersCollection, userID)
}

// FriendPath returns the path of the edge owner -> friend
func FriendPath(ownerID, friendID string) string {
	return DocPath(models.UsersCollection, ownerID, models.FriendsCollection, friendID)
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	data := map[string]any{
		models.FieldName:      user.Name,
		models.FieldCreatedAt: user.CreatedAt,
	}
	if user.ProfileImage != "" {
		data[models.FieldProfileImage] = user.ProfileImage
	}
	if err := r.store.Set(ctx, UserPath(user.ID), data); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.store.Get(ctx, UserPath(id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user := &models.User{
		ID:           doc.ID,
		Name:         models.String(doc.Data, models.FieldName),
		ProfileImage: models.String(doc.Data, models.FieldProfileImage),
	}
	if t, ok := models.Time(doc.Data, models.FieldCreatedAt); ok {
		user.CreatedAt = t
	}
	return user, nil
}

// ListIDs returns the ids of every user document
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	docs, err := r.store.Find(ctx, Collection(models.UsersCollection))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// Delete deletes a user document
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, UserPath(id)); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// AddFriend stores a directed friend edge
func (r *UserRepository) AddFriend(ctx context.Context, ownerID, friendID string) error {
	if err := r.store.Set(ctx, FriendPath(ownerID, friendID), map[string]any{models.FieldUserID: friendID}); err != nil {
		return fmt.Errorf("failed to add friend: %w", err)
	}
	return nil
}

// FriendsQuery selects the friend edges owned by a user
func (r *UserRepository) FriendsQuery(ownerID string) Query {
	return SubCollection(UserPath(ownerID), models.FriendsCollection)
}

// DeleteFriend removes the edge owner -> friend if it exists
func (r *UserRepository) DeleteFriend(ctx context.Context, ownerID, friendID string) error {
	if err := r.store.Delete(ctx, FriendPath(ownerID, friendID)); err != nil {
		return fmt.Errorf("failed to delete friend edge: %w", err)
	}
	return nil
}
