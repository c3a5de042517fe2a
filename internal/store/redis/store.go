// Package redis holds the short-lived server state kept in Redis: sessions
// and pending OAuth sign-ins. Key names live in keys.go.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultSessionTTL is the default lifetime of a signed-in session (7 days)
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultStateTTL is how long a sign-in may take at the provider (10 minutes)
	DefaultStateTTL = 10 * time.Minute
)

// Store handles Redis operations for sessions and OAuth state
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks that Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
