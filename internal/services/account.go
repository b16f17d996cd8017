package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"photo-social-backend/internal/identity"
	"photo-social-backend/internal/metrics"
	"photo-social-backend/internal/models"
	"photo-social-backend/internal/observability"
	"photo-social-backend/internal/repository"
	"photo-social-backend/internal/storage"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Account deletion steps, in execution order
const (
	StepReactions      = "reactions"
	StepCommentRecords = "comment_records"
	StepAudios         = "audios"
	StepPhotos         = "photos"
	StepNotifications  = "notifications"
	StepGraph          = "graph"
	StepIdentity       = "identity"
)

// BlobDeleter removes the object behind a URL; failures are reported, never raised
type BlobDeleter interface {
	Delete(ctx context.Context, url string) storage.Outcome
}

// SessionCloser ends live client sessions of a deleted user
type SessionCloser interface {
	CloseUser(userID, reason string)
}

// StepResult is the outcome of one deletion step
type StepResult struct {
	Step    string `json:"step"`
	Deleted int    `json:"deleted"`
	Err     error  `json:"-"`
}

// OK reports whether the step finished without error
func (r StepResult) OK() bool {
	return r.Err == nil
}

// DeletionReport collects the step results of one account deletion
type DeletionReport struct {
	UserID string
	Steps  []StepResult
}

// Failed returns the steps that recorded an error
func (r *DeletionReport) Failed() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if !step.OK() {
			failed = append(failed, step)
		}
	}
	return failed
}

// Step returns the result of a named step
func (r *DeletionReport) Step(name string) (StepResult, bool) {
	for _, step := range r.Steps {
		if step.Step == name {
			return step, true
		}
	}
	return StepResult{}, false
}

// AccountDeps are the collaborators of account deletion. Identity and
// Sessions are optional.
type AccountDeps struct {
	Store    repository.Store
	Blobs    BlobDeleter
	Batches  *BatchDeleter
	Identity identity.Provider
	Sessions SessionCloser
}

// AccountService removes every trace of a user
type AccountService struct {
	deps             AccountDeps
	users            *repository.UserRepository
	photos           *repository.PhotoRepository
	categories       *repository.CategoryRepository
	content          *repository.ContentRepository
	photoConcurrency int
}

// NewAccountService creates a new account service
func NewAccountService(deps AccountDeps, photoConcurrency int) *AccountService {
	if deps.Batches == nil {
		deps.Batches = NewBatchDeleter(deps.Store, 0, 0, defaultPause)
	}
	if photoConcurrency <= 0 {
		photoConcurrency = 1
	}
	return &AccountService{
		deps:             deps,
		users:            repository.NewUserRepository(deps.Store),
		photos:           repository.NewPhotoRepository(deps.Store),
		categories:       repository.NewCategoryRepository(deps.Store),
		content:          repository.NewContentRepository(deps.Store),
		photoConcurrency: photoConcurrency,
	}
}

// DeleteUserData runs every deletion step for userID in order. A failing step
// is recorded in the report and does not stop later steps; the identity is
// removed last. Only a missing caller is returned as an error.
func (s *AccountService) DeleteUserData(ctx context.Context, userID string) (*DeletionReport, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	ctx, span := observability.Tracer.Start(ctx, "account.delete_user_data")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	log.Info().Str("user_id", userID).Msg("Starting account deletion")
	metrics.AccountDeletions.Inc()

	report := &DeletionReport{UserID: userID}
	steps := []struct {
		name string
		run  func(context.Context, string) (int, error)
	}{
		{StepReactions, s.deleteReactions},
		{StepCommentRecords, s.deleteCommentRecords},
		{StepAudios, s.deleteAudios},
		{StepPhotos, s.deletePhotos},
		{StepNotifications, s.deleteNotifications},
		{StepGraph, s.deleteGraph},
		{StepIdentity, s.deleteIdentity},
	}

	for _, step := range steps {
		deleted, err := step.run(ctx, userID)
		report.Steps = append(report.Steps, StepResult{Step: step.name, Deleted: deleted, Err: err})
		if err != nil {
			metrics.AccountStepFailures.WithLabelValues(step.name).Inc()
			log.Warn().
				Err(err).
				Str("user_id", userID).
				Str("step", step.name).
				Msg("Account deletion step failed")
		}
	}

	if s.deps.Sessions != nil {
		s.deps.Sessions.CloseUser(userID, "account_deleted")
	}

	span.SetAttributes(attribute.Int("steps.failed", len(report.Failed())))
	log.Info().
		Str("user_id", userID).
		Int("failed_steps", len(report.Failed())).
		Msg("Completed account deletion")

	return report, nil
}

func (s *AccountService) deleteReactions(ctx context.Context, userID string) (int, error) {
	return s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.ReactionsByUser(userID)
	}, nil)
}

func (s *AccountService) deleteCommentRecords(ctx context.Context, userID string) (int, error) {
	return s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.CommentsByRecorder(userID)
	}, s.deleteBlobField(models.FieldAudioURL))
}

func (s *AccountService) deleteAudios(ctx context.Context, userID string) (int, error) {
	return s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.AudiosByOwner(userID)
	}, s.deleteBlobField(models.FieldAudioURL))
}

// deleteBlobField returns a visitor deleting the blob a document references
func (s *AccountService) deleteBlobField(field string) DocumentVisitor {
	return func(ctx context.Context, doc repository.Document) {
		if url := models.String(doc.Data, field); url != "" {
			s.deps.Blobs.Delete(ctx, url)
		}
	}
}

func (s *AccountService) deletePhotos(ctx context.Context, userID string) (int, error) {
	photos, err := s.photos.ByOwner(ctx, userID)
	if err != nil {
		return 0, err
	}

	var (
		mu      sync.Mutex
		deleted int
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.photoConcurrency)
	for _, photo := range photos {
		g.Go(func() error {
			err := s.deletePhoto(gctx, photo)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("photo %s: %w", photo.ID, err))
			} else {
				deleted++
			}
			return nil
		})
	}
	_ = g.Wait()

	return deleted, errors.Join(errs...)
}

// deletePhoto removes a photo's comments, reactions, blobs and then the photo itself
func (s *AccountService) deletePhoto(ctx context.Context, photo *models.Photo) error {
	var errs []error

	if _, err := s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.CommentsByPhoto(photo.ID)
	}, s.deleteBlobField(models.FieldAudioURL)); err != nil {
		log.Warn().Err(err).Str("photo_id", photo.ID).Msg("Failed to delete photo comments")
		errs = append(errs, err)
	}

	if _, err := s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.ReactionsByPhoto(photo.ID)
	}, nil); err != nil {
		log.Warn().Err(err).Str("photo_id", photo.ID).Msg("Failed to delete photo reactions")
		errs = append(errs, err)
	}

	s.deps.Blobs.Delete(ctx, photo.ImageURL)
	s.deps.Blobs.Delete(ctx, photo.AudioURL)

	if err := s.photos.Delete(ctx, photo.Path); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *AccountService) deleteNotifications(ctx context.Context, userID string) (int, error) {
	received, err := s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.NotificationsByRecipient(userID)
	}, nil)
	if err != nil {
		return received, err
	}
	sent, err := s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.content.NotificationsByActor(userID)
	}, nil)
	return received + sent, err
}

// deleteGraph removes friend edges in both directions, category memberships
// and finally the user document.
func (s *AccountService) deleteGraph(ctx context.Context, userID string) (int, error) {
	var errs []error

	deleted, err := s.deps.Batches.DeleteAll(ctx, func() repository.Query {
		return s.users.FriendsQuery(userID)
	}, nil)
	if err != nil {
		errs = append(errs, err)
	}

	others, err := s.users.ListIDs(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for _, other := range others {
		if other == userID {
			continue
		}
		if err := s.users.DeleteFriend(ctx, other, userID); err != nil {
			log.Debug().Err(err).Str("owner_id", other).Msg("Failed to delete reverse friend edge")
		}
	}

	categories, err := s.categories.WithMate(ctx, userID)
	if err != nil {
		errs = append(errs, err)
	}
	for _, category := range categories {
		removed, err := s.categories.RemoveMate(ctx, category, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", category.ID, err))
			continue
		}
		if removed {
			deleted++
			log.Info().Str("category_id", category.ID).Msg("Category deleted, no mates left")
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		errs = append(errs, err)
	} else {
		deleted++
	}

	return deleted, errors.Join(errs...)
}

func (s *AccountService) deleteIdentity(ctx context.Context, userID string) (int, error) {
	if s.deps.Identity == nil {
		log.Warn().Str("user_id", userID).Msg("No identity provider configured, skipping identity deletion")
		return 0, nil
	}
	if err := s.deps.Identity.DeleteIdentity(ctx, userID); err != nil {
		if errors.Is(err, identity.ErrUnknownIdentity) {
			return 0, nil
		}
		return 0, err
	}
	log.Info().Str("user_id", userID).Msg("Identity deleted")
	return 1, nil
}
