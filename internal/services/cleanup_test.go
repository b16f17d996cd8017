package services

import (
	"context"
	"testing"
	"time"

	"photo-social-backend/internal/models"
	"photo-social-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepNow = time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)

func deletedAgo(d time.Duration) *time.Time {
	t := sweepNow.Add(-d)
	return &t
}

const day = 24 * time.Hour

func seedSweepPhotos(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()
	photos := repository.NewPhotoRepository(store)
	content := repository.NewContentRepository(store)

	expired := &models.Photo{ID: "old", CategoryID: "c1", UserID: "u", ImageURL: "img://old", AudioURL: "aud://old",
		Status: models.PhotoStatusDeleted, DeletedAt: deletedAgo(30 * day)}
	recent := &models.Photo{ID: "recent", CategoryID: "c1", UserID: "u", ImageURL: "img://recent",
		Status: models.PhotoStatusDeleted, DeletedAt: deletedAgo(29 * day)}
	active := &models.Photo{ID: "active", CategoryID: "c1", UserID: "u", ImageURL: "img://active"}
	older := &models.Photo{ID: "older", CategoryID: "c2", UserID: "f", ImageURL: "img://older"}
	for _, p := range []*models.Photo{expired, recent, active, older} {
		require.NoError(t, photos.Create(ctx, p))
	}
	require.NoError(t, photos.SoftDelete(ctx, older.Path, *deletedAgo(90 * day)))

	require.NoError(t, content.CreateComment(ctx, &models.CommentRecord{ID: "cm1", PhotoID: "old", RecorderUser: "f", AudioURL: "aud://cm1"}))
	require.NoError(t, content.CreateComment(ctx, &models.CommentRecord{ID: "cm2", PhotoID: "recent", RecorderUser: "f", AudioURL: "aud://cm2"}))
	require.NoError(t, content.CreateReaction(ctx, expired, &models.Reaction{ID: "r1", UserID: "f"}))
	require.NoError(t, content.CreateReaction(ctx, recent, &models.Reaction{ID: "r2", UserID: "f"}))
}

func newTestCleanup(store repository.Store, blobs BlobDeleter) *CleanupService {
	return NewCleanupService(store, blobs, NewBatchDeleter(store, 0, 0, 0),
		WithClock(func() time.Time { return sweepNow }),
		WithChunkSize(2),
	)
}

func adminLogs(t *testing.T, store repository.Store) []repository.Document {
	t.Helper()
	docs, err := store.Find(context.Background(), repository.Collection(models.AdminLogsCollection))
	require.NoError(t, err)
	return docs
}

func TestCleanupService_Cutoff(t *testing.T) {
	svc := NewCleanupService(repository.NewMemoryStore(), &fakeBlobs{}, nil,
		WithClock(func() time.Time { return sweepNow }),
		WithRetentionDays(7),
	)
	assert.Equal(t, sweepNow.AddDate(0, 0, -7), svc.Cutoff())
}

func TestCleanupService_CleanupDeletedPhotos(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedSweepPhotos(t, store)
	blobs := &fakeBlobs{}
	svc := newTestCleanup(store, blobs)

	result, err := svc.CleanupDeletedPhotos(ctx, Trigger{Source: SourceManual, UserID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, &CleanupResult{DeletedCount: 2, ErrorCount: 0}, result)

	assert.False(t, exists(t, store, repository.PhotoPath("c1", "old")))
	assert.False(t, exists(t, store, repository.PhotoPath("c2", "older")))
	assert.True(t, exists(t, store, repository.PhotoPath("c1", "recent")))
	assert.True(t, exists(t, store, repository.PhotoPath("c1", "active")))

	assert.False(t, exists(t, store, repository.DocPath(models.CommentRecordsCollection, "cm1")))
	assert.True(t, exists(t, store, repository.DocPath(models.CommentRecordsCollection, "cm2")))
	assert.False(t, exists(t, store, repository.DocPath(repository.PhotoPath("c1", "old"), models.ReactionsCollection, "r1")))
	assert.True(t, exists(t, store, repository.DocPath(repository.PhotoPath("c1", "recent"), models.ReactionsCollection, "r2")))

	assert.ElementsMatch(t, []string{"img://old", "aud://old", "aud://cm1", "img://older"}, blobs.deleted())

	logs := adminLogs(t, store)
	require.Len(t, logs, 1)
	assert.Equal(t, "cleanup_deleted_photos", logs[0].Data["type"])
	assert.Equal(t, "completed", logs[0].Data["status"])
	assert.Equal(t, SourceManual, logs[0].Data["source"])
	assert.Equal(t, "admin", logs[0].Data["triggeredBy"])
	assert.Equal(t, 2, logs[0].Data["deletedCount"])
}

func TestCleanupService_NothingToDo(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := newTestCleanup(store, &fakeBlobs{})

	result, err := svc.CleanupDeletedPhotos(context.Background(), Trigger{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.DeletedCount)

	logs := adminLogs(t, store)
	require.Len(t, logs, 1)
	assert.Equal(t, SourceScheduled, logs[0].Data["source"])
}

func TestCleanupService_PhotoFailureIsCounted(t *testing.T) {
	mem := repository.NewMemoryStore()
	seedSweepPhotos(t, mem)
	store := &faultyStore{MemoryStore: mem, failDelete: repository.PhotoPath("c2", "older")}
	svc := newTestCleanup(store, &fakeBlobs{})

	result, err := svc.CleanupDeletedPhotos(context.Background(), Trigger{Source: SourceScheduled})
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedCount)
	assert.Equal(t, 1, result.ErrorCount)

	assert.True(t, exists(t, mem, repository.PhotoPath("c2", "older")))
	assert.False(t, exists(t, mem, repository.PhotoPath("c1", "old")))

	logs := adminLogs(t, mem)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, logs[0].Data["errorCount"])
}

func TestCleanupService_QueryFailureIsLogged(t *testing.T) {
	mem := repository.NewMemoryStore()
	store := &faultyStore{MemoryStore: mem, failFind: models.PhotosCollection}
	svc := newTestCleanup(store, &fakeBlobs{})

	_, err := svc.CleanupDeletedPhotos(context.Background(), Trigger{Source: SourceScheduled})
	require.ErrorIs(t, err, errBoom)

	logs := adminLogs(t, mem)
	require.Len(t, logs, 1)
	assert.Equal(t, "failed", logs[0].Data["status"])
	assert.Contains(t, logs[0].Data["error"], "boom")
	assert.NotEmpty(t, logs[0].Data["stack"])
}

func TestCleanupService_ManualRequiresUser(t *testing.T) {
	svc := newTestCleanup(repository.NewMemoryStore(), &fakeBlobs{})
	_, err := svc.CleanupDeletedPhotos(context.Background(), Trigger{Source: SourceManual})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
