package services

import (
	"context"
	"fmt"
	"time"

	"photo-social-backend/internal/metrics"
	"photo-social-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	defaultBatchSize = 450
	defaultMaxLoops  = 50
	defaultPause     = 50 * time.Millisecond
)

// QueryBuilder returns a fresh query on every call; results are re-read each loop
type QueryBuilder func() repository.Query

// DocumentVisitor runs for each matched document before its batch is committed
type DocumentVisitor func(ctx context.Context, doc repository.Document)

// BatchDeleter deletes everything a query matches in bounded atomic batches
type BatchDeleter struct {
	store     repository.Store
	batchSize int
	maxLoops  int
	pause     time.Duration
}

// NewBatchDeleter creates a batch deleter; zero values select the defaults
func NewBatchDeleter(store repository.Store, batchSize, maxLoops int, pause time.Duration) *BatchDeleter {
	if batchSize <= 0 || batchSize > repository.MaxBatchSize {
		batchSize = defaultBatchSize
	}
	if maxLoops <= 0 {
		maxLoops = defaultMaxLoops
	}
	if pause < 0 {
		pause = defaultPause
	}
	return &BatchDeleter{store: store, batchSize: batchSize, maxLoops: maxLoops, pause: pause}
}

// DeleteAll re-polls build until it matches nothing or the loop ceiling is hit.
// visit may be nil. Returns how many documents were deleted.
func (d *BatchDeleter) DeleteAll(ctx context.Context, build QueryBuilder, visit DocumentVisitor) (int, error) {
	total := 0
	for i := 0; i < d.maxLoops; i++ {
		q := build().WithLimit(d.batchSize)
		docs, err := d.store.Find(ctx, q)
		if err != nil {
			return total, fmt.Errorf("failed to query %s: %w", q.Collection, err)
		}
		if len(docs) == 0 {
			return total, nil
		}

		paths := make([]string, 0, len(docs))
		for _, doc := range docs {
			if visit != nil {
				visit(ctx, doc)
			}
			paths = append(paths, doc.Path)
		}

		if err := d.store.DeleteBatch(ctx, paths); err != nil {
			return total, fmt.Errorf("failed to delete %s batch: %w", q.Collection, err)
		}
		total += len(paths)
		metrics.DocumentsDeleted.Add(float64(len(paths)))

		if d.pause > 0 {
			select {
			case <-ctx.Done():
				return total, ctx.Err()
			case <-time.After(d.pause):
			}
		}
	}

	log.Warn().
		Int("max_loops", d.maxLoops).
		Int("deleted", total).
		Msg("Batched delete stopped at loop ceiling")
	return total, nil
}
