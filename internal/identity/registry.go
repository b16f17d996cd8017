// Package identity keeps the set of live caller identities. Tokens are only
// honoured while their identity is registered; deleting the identity is the
// admin-side account removal.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "identity:"

// ErrUnknownIdentity is returned when deleting an identity that is not registered
var ErrUnknownIdentity = errors.New("identity not found")

// Provider is the admin interface used by account deletion
type Provider interface {
	DeleteIdentity(ctx context.Context, userID string) error
}

// Registry stores identities in Redis
type Registry struct {
	client *redis.Client
}

// NewRegistry wraps an existing Redis client
func NewRegistry(client *redis.Client) *Registry {
	return &Registry{client: client}
}

// Connect creates a Redis client and checks it answers
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	var opts *redis.Options
	if parsed, err := redis.ParseURL(addr); err == nil {
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func key(userID string) string {
	return keyPrefix + userID
}

// Register records an identity
func (r *Registry) Register(ctx context.Context, userID string) error {
	err := r.client.HSet(ctx, key(userID), "created_at", time.Now().UTC().Format(time.RFC3339)).Err()
	if err != nil {
		return fmt.Errorf("failed to register identity: %w", err)
	}
	return nil
}

// Exists reports whether an identity is registered
func (r *Registry) Exists(ctx context.Context, userID string) (bool, error) {
	n, err := r.client.Exists(ctx, key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check identity: %w", err)
	}
	return n > 0, nil
}

// DeleteIdentity removes an identity; later tokens for it are rejected
func (r *Registry) DeleteIdentity(ctx context.Context, userID string) error {
	n, err := r.client.Del(ctx, key(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if n == 0 {
		return ErrUnknownIdentity
	}
	return nil
}
