package storage

import (
	"context"
	"net/url"
	"strings"

	"photo-social-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Backend identifies where a blob URL points
type Backend string

const (
	BackendNone      Backend = "none"
	BackendPrimary   Backend = "primary"
	BackendSecondary Backend = "secondary"
)

// DefaultPathMarker precedes "<bucket>/<object>" in secondary public URLs
const DefaultPathMarker = "/storage/v1/object/public/"

// ObjectDeleter deletes objects from the primary bucket by key; deleting a
// missing key must succeed.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// BucketRemover removes objects from a named bucket of the secondary store
type BucketRemover interface {
	RemoveObject(ctx context.Context, bucket, path string) error
}

// Target is the result of resolving a URL
type Target struct {
	Backend Backend
	Bucket  string
	Path    string
}

// Outcome reports what happened to one URL
type Outcome struct {
	URL     string
	Target  Target
	Deleted bool
	Err     error
}

// Resolver routes blob URLs to the backend that hosts them
type Resolver struct {
	primary         ObjectDeleter
	primaryPrefixes []string
	secondary       BucketRemover
	marker          string
}

// NewResolver creates a resolver. secondary may be nil when the secondary
// store is not configured; its URLs then resolve to nothing.
func NewResolver(primary ObjectDeleter, primaryPrefixes []string, secondary BucketRemover, marker string) *Resolver {
	if marker == "" {
		marker = DefaultPathMarker
	}
	return &Resolver{
		primary:         primary,
		primaryPrefixes: primaryPrefixes,
		secondary:       secondary,
		marker:          marker,
	}
}

// Resolve maps a URL to a backend and object location without side effects
func (r *Resolver) Resolve(rawURL string) Target {
	none := Target{Backend: BackendNone}
	if rawURL == "" {
		return none
	}

	if r.primary != nil {
		for _, prefix := range r.primaryPrefixes {
			if prefix == "" || !strings.HasPrefix(rawURL, prefix) {
				continue
			}
			rest := rawURL[len(prefix):]
			if i := strings.IndexAny(rest, "?#"); i >= 0 {
				rest = rest[:i]
			}
			key, err := url.PathUnescape(rest)
			if err != nil || key == "" {
				return none
			}
			return Target{Backend: BackendPrimary, Path: key}
		}
	}

	if r.secondary != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return none
		}
		idx := strings.Index(u.Path, r.marker)
		if idx == -1 {
			return none
		}
		rest := u.Path[idx+len(r.marker):]
		slash := strings.Index(rest, "/")
		if slash <= 0 || slash == len(rest)-1 {
			return none
		}
		return Target{Backend: BackendSecondary, Bucket: rest[:slash], Path: rest[slash+1:]}
	}

	return none
}

// Delete removes the object behind rawURL. It never fails the caller: errors
// are logged and returned inside the Outcome.
func (r *Resolver) Delete(ctx context.Context, rawURL string) Outcome {
	out := Outcome{URL: rawURL, Target: r.Resolve(rawURL)}
	if rawURL == "" {
		return out
	}

	switch out.Target.Backend {
	case BackendPrimary:
		out.Err = r.primary.DeleteObject(ctx, out.Target.Path)
	case BackendSecondary:
		out.Err = r.secondary.RemoveObject(ctx, out.Target.Bucket, out.Target.Path)
	default:
		log.Warn().Str("url", rawURL).Msg("Unknown storage URL format, skipping blob delete")
		metrics.BlobDeletes.WithLabelValues(string(BackendNone), "skipped").Inc()
		return out
	}

	if out.Err != nil {
		log.Warn().
			Err(out.Err).
			Str("url", rawURL).
			Str("backend", string(out.Target.Backend)).
			Msg("Failed to delete blob")
		metrics.BlobDeletes.WithLabelValues(string(out.Target.Backend), "error").Inc()
		return out
	}

	out.Deleted = true
	log.Debug().
		Str("backend", string(out.Target.Backend)).
		Str("path", out.Target.Path).
		Msg("Blob deleted")
	metrics.BlobDeletes.WithLabelValues(string(out.Target.Backend), "deleted").Inc()
	return out
}
