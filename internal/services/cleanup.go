package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"photo-social-backend/internal/metrics"
	"photo-social-backend/internal/models"
	"photo-social-backend/internal/observability"
	"photo-social-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Sweep trigger sources
const (
	SourceScheduled = "scheduled"
	SourceManual    = "manual"
)

const (
	cleanupLogType   = "cleanup_deleted_photos"
	defaultRetention = 30
	defaultChunkSize = 50
)

// Trigger describes who started a sweep
type Trigger struct {
	Source string
	UserID string
}

// CleanupResult is the summary of one sweep
type CleanupResult struct {
	DeletedCount int `json:"deletedCount"`
	ErrorCount   int `json:"errorCount"`
}

// CleanupService permanently removes photos soft-deleted longer than the retention window
type CleanupService struct {
	blobs     BlobDeleter
	batches   *BatchDeleter
	photos    *repository.PhotoRepository
	content   *repository.ContentRepository
	adminLogs *repository.AdminLogRepository

	retentionDays int
	chunkSize     int
	now           func() time.Time
}

// CleanupOption configures a CleanupService
type CleanupOption func(*CleanupService)

// WithRetentionDays sets the retention window in days
func WithRetentionDays(days int) CleanupOption {
	return func(s *CleanupService) {
		if days >= 0 {
			s.retentionDays = days
		}
	}
}

// WithChunkSize sets how many photos are processed concurrently
func WithChunkSize(n int) CleanupOption {
	return func(s *CleanupService) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		s.now = now
	}
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(store repository.Store, blobs BlobDeleter, batches *BatchDeleter, opts ...CleanupOption) *CleanupService {
	if batches == nil {
		batches = NewBatchDeleter(store, 0, 0, defaultPause)
	}
	s := &CleanupService{
		blobs:         blobs,
		batches:       batches,
		photos:        repository.NewPhotoRepository(store),
		content:       repository.NewContentRepository(store),
		adminLogs:     repository.NewAdminLogRepository(store),
		retentionDays: defaultRetention,
		chunkSize:     defaultChunkSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cutoff returns the newest deletion time that is already evictable
func (s *CleanupService) Cutoff() time.Time {
	return s.now().UTC().AddDate(0, 0, -s.retentionDays)
}

// CleanupDeletedPhotos runs one sweep. Per-photo failures are counted in the
// result; only a failure of the sweep itself is returned, after it has been
// written to the audit log.
func (s *CleanupService) CleanupDeletedPhotos(ctx context.Context, trigger Trigger) (result *CleanupResult, err error) {
	if trigger.Source == SourceManual && trigger.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if trigger.Source == "" {
		trigger.Source = SourceScheduled
	}

	ctx, span := observability.Tracer.Start(ctx, "cleanup.deleted_photos")
	defer span.End()
	span.SetAttributes(attribute.String("trigger.source", trigger.Source))

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.SweepDuration.WithLabelValues(trigger.Source, status).Observe(time.Since(start).Seconds())
	}()

	cutoff := s.Cutoff()
	log.Info().
		Str("source", trigger.Source).
		Time("cutoff", cutoff).
		Msg("Starting deleted photo cleanup")

	photos, err := s.photos.DeletedBefore(ctx, cutoff)
	if err != nil {
		s.recordFailure(ctx, trigger, err)
		return nil, fmt.Errorf("failed to query deleted photos: %w", err)
	}

	var deleted, failed atomic.Int64
	for i := 0; i < len(photos); i += s.chunkSize {
		end := min(i+s.chunkSize, len(photos))

		var wg sync.WaitGroup
		for _, photo := range photos[i:end] {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.evictPhoto(ctx, photo); err != nil {
					failed.Add(1)
					metrics.PhotoEvictionErrors.WithLabelValues(trigger.Source).Inc()
					log.Error().Err(err).Str("photo_id", photo.ID).Msg("Failed to evict photo")
					return
				}
				deleted.Add(1)
				metrics.PhotosEvicted.WithLabelValues(trigger.Source).Inc()
			}()
		}
		wg.Wait()

		if ctx.Err() != nil {
			s.recordFailure(ctx, trigger, ctx.Err())
			return nil, fmt.Errorf("cleanup interrupted: %w", ctx.Err())
		}
	}

	result = &CleanupResult{DeletedCount: int(deleted.Load()), ErrorCount: int(failed.Load())}
	span.SetAttributes(
		attribute.Int("photos.deleted", result.DeletedCount),
		attribute.Int("photos.failed", result.ErrorCount),
	)
	log.Info().
		Str("source", trigger.Source).
		Int("deleted", result.DeletedCount).
		Int("errors", result.ErrorCount).
		Msg("Completed deleted photo cleanup")

	s.appendLog(ctx, &models.AdminLog{
		Type:        cleanupLogType,
		Status:      "completed",
		TriggeredBy: trigger.UserID,
		Source:      trigger.Source,
		Deleted:     result.DeletedCount,
		Errors:      result.ErrorCount,
		CreatedAt:   s.now().UTC(),
	})

	return result, nil
}

// evictPhoto removes one photo with its blobs, comments and reactions
func (s *CleanupService) evictPhoto(ctx context.Context, photo *models.Photo) error {
	s.blobs.Delete(ctx, photo.ImageURL)
	if photo.AudioURL != "" {
		s.blobs.Delete(ctx, photo.AudioURL)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.batches.DeleteAll(gctx, func() repository.Query {
			return s.content.CommentsByPhoto(photo.ID)
		}, func(ctx context.Context, doc repository.Document) {
			url := models.String(doc.Data, models.FieldAudioURL)
			if url == "" {
				return
			}
			log.Info().
				Str("photo_id", photo.ID).
				Str("comment_id", doc.ID).
				Str("audio_url", url).
				Msg("Deleting comment audio")
			s.blobs.Delete(ctx, url)
		})
		if err != nil {
			return fmt.Errorf("comments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.batches.DeleteAll(gctx, func() repository.Query {
			return s.content.ReactionsByPhoto(photo.ID)
		}, nil); err != nil {
			return fmt.Errorf("reactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return s.photos.Delete(ctx, photo.Path)
}

func (s *CleanupService) recordFailure(ctx context.Context, trigger Trigger, cause error) {
	log.Error().Err(cause).Str("source", trigger.Source).Msg("Deleted photo cleanup failed")
	s.appendLog(context.WithoutCancel(ctx), &models.AdminLog{
		Type:        cleanupLogType,
		Status:      "failed",
		TriggeredBy: trigger.UserID,
		Source:      trigger.Source,
		Error:       cause.Error(),
		Stack:       string(debug.Stack()),
		CreatedAt:   s.now().UTC(),
	})
}

func (s *CleanupService) appendLog(ctx context.Context, entry *models.AdminLog) {
	if _, err := s.adminLogs.Append(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Failed to write admin log")
	}
}
