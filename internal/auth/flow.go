package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// Exchanger is the identity provider side of a sign-in.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.Identity, error)
}

// StateStore keeps pending sign-ins between redirect and callback.
type StateStore interface {
	SaveOAuthState(ctx context.Context, state, next string, ttl time.Duration) error
	ConsumeOAuthState(ctx context.Context, state string) (string, error)
}

// Flow runs the browser side of an authorization-code sign-in.
type Flow struct {
	provider Exchanger
	states   StateStore
	stateTTL time.Duration
}

// NewFlow creates a sign-in flow.
func NewFlow(provider Exchanger, states StateStore, stateTTL time.Duration) *Flow {
	return &Flow{provider: provider, states: states, stateTTL: stateTTL}
}

// StateTTL is how long a started sign-in stays valid.
func (f *Flow) StateTTL() time.Duration { return f.stateTTL }

// Begin records a new pending sign-in and returns its state and the
// provider URL to redirect to.
func (f *Flow) Begin(ctx context.Context, next string) (state, redirectURL string, err error) {
	state = uuid.NewString()
	if err := f.states.SaveOAuthState(ctx, state, SafeNext(next), f.stateTTL); err != nil {
		return "", "", err
	}
	return state, f.provider.AuthCodeURL(state), nil
}

// Complete validates the callback and exchanges the code.
//
// state comes from the query string, cookieState from the browser that
// started the sign-in; both must match a pending sign-in. nextOverride, when
// set, replaces the return path recorded by Begin. Every failure wraps
// domain.ErrAuthFailed.
func (f *Flow) Complete(ctx context.Context, state, cookieState, code, nextOverride string) (domain.Identity, string, error) {
	if state == "" || state != cookieState {
		return domain.Identity{}, "", fmt.Errorf("%w: %w", domain.ErrAuthFailed, domain.ErrStateMismatch)
	}

	next, err := f.states.ConsumeOAuthState(ctx, state)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}
	if nextOverride != "" {
		next = nextOverride
	}

	if code == "" {
		return domain.Identity{}, "", fmt.Errorf("%w: missing code", domain.ErrAuthFailed)
	}

	id, err := f.provider.Exchange(ctx, code)
	if err != nil {
		return domain.Identity{}, "", fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}
	return id, SafeNext(next), nil
}
