package repository

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process document store used for local runs and tests
type MemoryStore struct {
	mu      sync.RWMutex
	docs    map[string]map[string]any
	commits int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]any)}
}

// Find returns documents matching q ordered by path
func (s *MemoryStore) Find(_ context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.docs))
	for path := range s.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var result []Document
	for _, path := range paths {
		parent, collection, id, err := splitPath(path)
		if err != nil || collection != q.Collection {
			continue
		}
		if !q.Group && parent != strings.Trim(q.Parent, "/") {
			continue
		}
		data := s.docs[path]
		if !matchesAll(data, q.Filters) {
			continue
		}
		result = append(result, Document{Path: path, ID: id, Data: cloneData(data)})
		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	return result, nil
}

// Get returns a single document
func (s *MemoryStore) Get(_ context.Context, path string) (*Document, error) {
	_, _, id, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Path: path, ID: id, Data: cloneData(data)}, nil
}

// Set creates or replaces a document
func (s *MemoryStore) Set(_ context.Context, path string, data map[string]any) error {
	if _, _, _, err := splitPath(path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = cloneData(data)
	return nil
}

// Update merges fields into an existing document
func (s *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[path]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

// Delete removes a document if present
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

// DeleteBatch removes all paths under one lock
func (s *MemoryStore) DeleteBatch(_ context.Context, paths []string) error {
	if err := validateBatch(paths); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, path := range paths {
		delete(s.docs, path)
	}
	s.commits++
	return nil
}

// Add stores data under a generated id
func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	path := DocPath(collection, uuid.New().String())
	if err := s.Set(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// Commits reports how many batches have been committed
func (s *MemoryStore) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

// Len reports the number of stored documents
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func matchesAll(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matches(data[f.Field], f) {
			return false
		}
	}
	return true
}

func matches(value any, f Filter) bool {
	if value == nil {
		return false
	}
	switch f.Op {
	case OpEq:
		return equalValues(value, f.Value)
	case OpLte:
		cmp, ok := compareValues(value, f.Value)
		return ok && cmp <= 0
	case OpArrayContains:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if equalValues(rv.Index(i).Interface(), f.Value) {
				return true
			}
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders times, numbers and strings; ok is false otherwise
func compareValues(a, b any) (int, bool) {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case []string:
			out[k] = append([]string(nil), t...)
		case []any:
			out[k] = append([]any(nil), t...)
		default:
			out[k] = v
		}
	}
	return out
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) String() string {
	return fmt.Sprintf("memory(%d docs)", s.Len())
}
