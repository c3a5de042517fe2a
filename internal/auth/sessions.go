package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
	"github.com/sweedalp/smart-bookmark-app/internal/logger"
)

// SessionStore persists server-side sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, session *domain.Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL time.Duration
	// RefreshWindow re-issues the credential when less than this remains.
	// A window >= TTL refreshes on every request.
	RefreshWindow time.Duration
}

// Resolution is the result of resolving a session credential.
type Resolution struct {
	Identity domain.Identity
	Session  *domain.Session
	// Token is a freshly issued credential when the session was extended,
	// empty otherwise.
	Token string
}

// Refreshed reports whether the caller must send a new cookie.
func (r Resolution) Refreshed() bool { return r.Token != "" }

// Manager creates, resolves and destroys sessions.
type Manager struct {
	store  SessionStore
	tokens *Tokens
	cfg    SessionConfig
	now    func() time.Time
	log    logger.Logger
}

// NewManager creates a session manager.
func NewManager(store SessionStore, tokens *Tokens, cfg SessionConfig, log logger.Logger) *Manager {
	return &Manager{
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		now:    time.Now,
		log:    log.With(logger.String("component", "sessions")),
	}
}

// Create opens a session for id and returns it with its signed credential.
func (m *Manager) Create(ctx context.Context, id domain.Identity) (*domain.Session, string, error) {
	if id.UserID == "" {
		return nil, "", domain.ErrUnauthenticated
	}

	now := m.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Email:     id.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}

	if err := m.store.SaveSession(ctx, session, m.cfg.TTL); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	token, err := m.tokens.Issue(session)
	if err != nil {
		return nil, "", err
	}

	m.log.Info("session created",
		logger.String("session_id", session.ID),
		logger.String("user_id", session.UserID))
	return session, token, nil
}

// Resolve verifies a credential and loads its session, extending it when it
// is inside the refresh window.
//
// Invalid, expired or revoked credentials return domain.ErrUnauthenticated.
// Any other error means the session store could not be reached.
func (m *Manager) Resolve(ctx context.Context, raw string) (Resolution, error) {
	claims, err := m.tokens.Verify(raw)
	if err != nil {
		return Resolution{}, err
	}

	session, err := m.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			return Resolution{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return Resolution{}, fmt.Errorf("resolve session: %w", err)
	}
	if session.UserID != claims.UserID {
		return Resolution{}, domain.ErrUnauthenticated
	}

	res := Resolution{Identity: session.Identity(), Session: session}

	now := m.now()
	if session.ExpiresAt.Sub(now) >= m.cfg.RefreshWindow {
		return res, nil
	}

	session.ExpiresAt = now.Add(m.cfg.TTL)
	if err := m.store.SaveSession(ctx, session, m.cfg.TTL); err != nil {
		// The current credential is still valid; try again next request.
		m.log.Warn("failed to extend session",
			logger.String("session_id", session.ID),
			logger.Error(err))
		return res, nil
	}

	token, err := m.tokens.Issue(session)
	if err != nil {
		return res, nil
	}
	res.Token = token
	return res, nil
}

// Destroy ends the session behind raw. Unknown or malformed credentials are
// ignored so sign-out always succeeds from the user's point of view.
func (m *Manager) Destroy(ctx context.Context, raw string) error {
	claims, err := m.tokens.VerifyIgnoringExpiry(raw)
	if err != nil {
		return nil
	}

	if err := m.store.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}

	m.log.Info("session destroyed",
		logger.String("session_id", claims.SessionID),
		logger.String("user_id", claims.UserID))
	return nil
}
