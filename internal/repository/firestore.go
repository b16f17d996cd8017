package repository

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the native Firestore driver
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore opens a client for projectID using default credentials
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// Find runs q as a collection or collection-group query
func (r *FirestoreStore) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	var query firestore.Query
	switch {
	case q.Group:
		query = r.client.CollectionGroup(q.Collection).Query
	case q.Parent != "":
		query = r.client.Doc(strings.Trim(q.Parent, "/")).Collection(q.Collection).Query
	default:
		query = r.client.Collection(q.Collection).Query
	}
	for _, f := range q.Filters {
		query = query.Where(f.Field, string(f.Op), f.Value)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{Path: relativePath(snap.Ref), ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

// Get retrieves a document by path
func (r *FirestoreStore) Get(ctx context.Context, path string) (*Document, error) {
	ref := r.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("invalid document path %q", path)
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &Document{Path: path, ID: ref.ID, Data: snap.Data()}, nil
}

// Set creates or replaces a document
func (r *FirestoreStore) Set(ctx context.Context, path string, data map[string]any) error {
	ref := r.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("invalid document path %q", path)
	}
	if _, err := ref.Set(ctx, data); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

// Update merges fields into an existing document
func (r *FirestoreStore) Update(ctx context.Context, path string, fields map[string]any) error {
	ref := r.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("invalid document path %q", path)
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// Delete removes a document; Firestore treats missing documents as deleted
func (r *FirestoreStore) Delete(ctx context.Context, path string) error {
	ref := r.client.Doc(path)
	if ref == nil {
		return fmt.Errorf("invalid document path %q", path)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteBatch commits all deletes in a single write batch
func (r *FirestoreStore) DeleteBatch(ctx context.Context, paths []string) error {
	if err := validateBatch(paths); err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	batch := r.client.Batch()
	for _, path := range paths {
		ref := r.client.Doc(path)
		if ref == nil {
			return fmt.Errorf("invalid document path %q", path)
		}
		batch.Delete(ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Add stores data under a Firestore-generated id
func (r *FirestoreStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	ref, _, err := r.client.Collection(collection).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to add document: %w", err)
	}
	return relativePath(ref), nil
}

// Close closes the client
func (r *FirestoreStore) Close() error {
	return r.client.Close()
}

// relativePath strips the projects/.../documents prefix from a reference
func relativePath(ref *firestore.DocumentRef) string {
	segs := []string{ref.Parent.ID, ref.ID}
	for parent := ref.Parent.Parent; parent != nil; parent = parent.Parent.Parent {
		segs = append([]string{parent.Parent.ID, parent.ID}, segs...)
	}
	return strings.Join(segs, "/")
}

var _ Store = (*FirestoreStore)(nil)
