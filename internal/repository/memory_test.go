package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"photo-social-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s Store, path string, data map[string]any) {
	t.Helper()
	require.NoError(t, s.Set(context.Background(), path, data))
}

func paths(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Path)
	}
	return out
}

func TestMemoryStore_FindScopes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed(t, s, "users/a", map[string]any{"name": "A"})
	seed(t, s, "users/b", map[string]any{"name": "B"})
	seed(t, s, "users/a/friends/b", map[string]any{"userID": "b"})
	seed(t, s, "users/b/friends/a", map[string]any{"userID": "a"})

	roots, err := s.Find(ctx, Collection("users"))
	require.NoError(t, err)
	assert.Equal(t, []string{"users/a", "users/b"}, paths(roots))

	sub, err := s.Find(ctx, SubCollection("users/a", "friends"))
	require.NoError(t, err)
	assert.Equal(t, []string{"users/a/friends/b"}, paths(sub))

	group, err := s.Find(ctx, CollectionGroup("friends"))
	require.NoError(t, err)
	assert.Len(t, group, 2)
	assert.Equal(t, "b", group[0].ID)
}

func TestMemoryStore_Filters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	seed(t, s, "categories/c1/photos/p1", map[string]any{"status": "deleted", "deletedAt": base})
	seed(t, s, "categories/c1/photos/p2", map[string]any{"status": "deleted", "deletedAt": base.Add(time.Second)})
	seed(t, s, "categories/c2/photos/p3", map[string]any{"status": "active"})
	seed(t, s, "categories/c1", map[string]any{"mates": []string{"u1", "u2"}})
	seed(t, s, "categories/c2", map[string]any{"mates": []any{"u2"}})

	deleted, err := s.Find(ctx, CollectionGroup("photos").
		Where("status", OpEq, "deleted").
		Where("deletedAt", OpLte, base))
	require.NoError(t, err)
	assert.Equal(t, []string{"categories/c1/photos/p1"}, paths(deleted))

	withU1, err := s.Find(ctx, Collection("categories").Where("mates", OpArrayContains, "u1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"categories/c1"}, paths(withU1))

	withU2, err := s.Find(ctx, Collection("categories").Where("mates", OpArrayContains, "u2"))
	require.NoError(t, err)
	assert.Len(t, withU2, 2)
}

func TestMemoryStore_Limit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < 10; i++ {
		seed(t, s, fmt.Sprintf("notifications/n%02d", i), map[string]any{"recipientUserId": "u"})
	}

	docs, err := s.Find(ctx, Collection("notifications").Where("recipientUserId", OpEq, "u").WithLimit(3))
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "users/nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_InvalidPath(t *testing.T) {
	s := NewMemoryStore()
	err := s.Set(context.Background(), "users", map[string]any{})
	assert.Error(t, err)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, "users/a", map[string]any{})

	require.NoError(t, s.Delete(ctx, "users/a"))
	require.NoError(t, s.Delete(ctx, "users/a"))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DeleteBatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, "audios/a1", map[string]any{})
	seed(t, s, "audios/a2", map[string]any{})

	require.NoError(t, s.DeleteBatch(ctx, []string{"audios/a1", "audios/a2"}))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Commits())

	tooMany := make([]string, MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("audios/x%d", i)
	}
	assert.Error(t, s.DeleteBatch(ctx, tooMany))
	assert.Equal(t, 1, s.Commits())
}

func TestMemoryStore_UnsupportedOperator(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Find(context.Background(), Collection("users").Where("name", Op(">"), "a"))
	assert.Error(t, err)
}

func TestCategoryRepository_RemoveMate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	repo := NewCategoryRepository(s)

	require.NoError(t, repo.Create(ctx, &models.Category{ID: "c1", Name: "trip", Mates: []string{"a", "b"}}))

	cats, err := repo.WithMate(ctx, "a")
	require.NoError(t, err)
	require.Len(t, cats, 1)

	deleted, err := repo.RemoveMate(ctx, cats[0], "a")
	require.NoError(t, err)
	assert.False(t, deleted)

	stored, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, stored.Mates)

	deleted, err = repo.RemoveMate(ctx, stored, "b")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShortLinkRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	repo := NewShortLinkRepository(s)

	exists, err := repo.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, &models.ShortLink{
		ShortCode: "abc",
		LongURL:   "https://example.com",
		CreatedBy: "u1",
		IsActive:  true,
	}))

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordClick(ctx, "abc", 3, at))

	link, err := repo.GetByCode(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, link.Clicks)
	assert.True(t, link.IsActive)
	require.NotNil(t, link.LastAccessed)
	assert.True(t, at.Equal(*link.LastAccessed))

	_, err = repo.GetByCode(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminLogRepository_Append(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	repo := NewAdminLogRepository(s)

	path, err := repo.Append(ctx, &models.AdminLog{Type: "cleanup", Status: "failed", Error: "boom", Stack: "trace"})
	require.NoError(t, err)

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "failed", doc.Data["status"])
	assert.Equal(t, "trace", doc.Data["stack"])
}
