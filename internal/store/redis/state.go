package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// SaveOAuthState records a pending sign-in and the local path to return to
func (s *Store) SaveOAuthState(ctx context.Context, state, next string, ttl time.Duration) error {
	if err := s.client.Set(ctx, OAuthStateKey(state), next, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// ConsumeOAuthState removes a pending sign-in and returns its return path.
// Each state is accepted once; unknown or expired states return
// domain.ErrStateMismatch.
func (s *Store) ConsumeOAuthState(ctx context.Context, state string) (string, error) {
	next, err := s.client.GetDel(ctx, OAuthStateKey(state)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrStateMismatch
		}
		return "", fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return next, nil
}
