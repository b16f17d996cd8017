package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// MaxBatchSize is the largest number of writes a single DeleteBatch may carry
const MaxBatchSize = 500

// Op is a query filter operator
type Op string

const (
	OpEq            Op = "=="
	OpLte           Op = "<="
	OpArrayContains Op = "array-contains"
)

// Filter is a single field predicate
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents of one collection id, either directly under a parent
// document (or the root) or, when Group is set, at any depth.
type Query struct {
	Collection string
	Parent     string
	Group      bool
	Filters    []Filter
	Limit      int
}

// Collection starts a query over a root collection
func Collection(name string) Query {
	return Query{Collection: name}
}

// SubCollection starts a query over a collection nested under parent
func SubCollection(parent, name string) Query {
	return Query{Collection: name, Parent: parent}
}

// CollectionGroup starts a query over every collection named name
func CollectionGroup(name string) Query {
	return Query{Collection: name, Group: true}
}

// Where returns a copy of q with an extra filter
func (q Query) Where(field string, op Op, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// WithLimit returns a copy of q limited to n results (0 means unlimited)
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Document is a stored document
type Document struct {
	Path string
	ID   string
	Data map[string]any
}

// Store is the document database contract every driver implements
type Store interface {
	Find(ctx context.Context, q Query) ([]Document, error)
	Get(ctx context.Context, path string) (*Document, error)
	Set(ctx context.Context, path string, data map[string]any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes a document; a missing document is not an error.
	Delete(ctx context.Context, path string) error
	// DeleteBatch removes all paths atomically.
	DeleteBatch(ctx context.Context, paths []string) error
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Close() error
}

// DocPath joins collection/id segments into a document path
func DocPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// splitPath returns the parent document path, collection id and document id
func splitPath(path string) (parent, collection, id string, err error) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || len(segs)%2 != 0 {
		return "", "", "", fmt.Errorf("invalid document path %q", path)
	}
	for _, s := range segs {
		if s == "" {
			return "", "", "", fmt.Errorf("invalid document path %q", path)
		}
	}
	n := len(segs)
	return strings.Join(segs[:n-2], "/"), segs[n-2], segs[n-1], nil
}

func validateQuery(q Query) error {
	if q.Collection == "" || strings.Contains(q.Collection, "/") {
		return fmt.Errorf("invalid collection %q", q.Collection)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEq, OpLte, OpArrayContains:
		default:
			return fmt.Errorf("unsupported operator %q", f.Op)
		}
		if f.Field == "" {
			return fmt.Errorf("empty filter field")
		}
	}
	return nil
}

func validateBatch(paths []string) error {
	if len(paths) > MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds limit of %d writes", len(paths), MaxBatchSize)
	}
	return nil
}
