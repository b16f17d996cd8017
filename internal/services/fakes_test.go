package services

import (
	"context"
	"errors"
	"sync"

	"photo-social-backend/internal/identity"
	"photo-social-backend/internal/repository"
	"photo-social-backend/internal/storage"
)

var errBoom = errors.New("boom")

// fakeBlobs records every URL it is asked to delete
type fakeBlobs struct {
	mu   sync.Mutex
	urls []string
}

func (f *fakeBlobs) Delete(_ context.Context, url string) storage.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	if url == "" {
		return storage.Outcome{}
	}
	f.urls = append(f.urls, url)
	return storage.Outcome{URL: url, Deleted: true}
}

func (f *fakeBlobs) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.urls...)
}

// fakeIdentity behaves like the registry: a second delete reports an unknown identity
type fakeIdentity struct {
	mu      sync.Mutex
	calls   []string
	deleted map[string]bool
	err     error
}

func (f *fakeIdentity) DeleteIdentity(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return f.err
	}
	if f.deleted == nil {
		f.deleted = make(map[string]bool)
	}
	if f.deleted[userID] {
		return identity.ErrUnknownIdentity
	}
	f.deleted[userID] = true
	return nil
}

type fakeSessions struct {
	closed []string
}

func (f *fakeSessions) CloseUser(userID, reason string) {
	f.closed = append(f.closed, userID+":"+reason)
}

// faultyStore fails selected operations of an in-memory store
type faultyStore struct {
	*repository.MemoryStore
	failFind   string
	failDelete string
}

func (s *faultyStore) Find(ctx context.Context, q repository.Query) ([]repository.Document, error) {
	if q.Collection == s.failFind {
		return nil, errBoom
	}
	return s.MemoryStore.Find(ctx, q)
}

func (s *faultyStore) Delete(ctx context.Context, path string) error {
	if path == s.failDelete {
		return errBoom
	}
	return s.MemoryStore.Delete(ctx, path)
}

type fakeUploader struct {
	mu          sync.Mutex
	keys        []string
	contentType string
	size        int
	err         error
}

func (f *fakeUploader) PutObject(_ context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.contentType = contentType
	f.size = len(data)
	return "https://media.example.com/" + key, nil
}
