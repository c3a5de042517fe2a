package domain

import "time"

// Identity is an authenticated user as reported by the identity provider.
type Identity struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
}

// Session is the server-side record behind a session credential.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity returns the identity the session was opened for.
func (s *Session) Identity() Identity {
	return Identity{UserID: s.UserID, Email: s.Email}
}
