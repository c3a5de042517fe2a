package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// TokenConfig holds session credential signing configuration.
type TokenConfig struct {
	Secret string
	Issuer string
}

// sessionClaims are the claims carried by the session cookie.
type sessionClaims struct {
	Email string `json:"email"`
	Sid   string `json:"sid"`
	jwt.RegisteredClaims
}

// Claims is a verified session credential.
type Claims struct {
	SessionID string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Tokens signs and verifies session credentials (HS256 JWTs).
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokens creates a credential signer.
func NewTokens(cfg TokenConfig) *Tokens {
	return &Tokens{cfg: cfg, now: time.Now}
}

// Issue signs a credential pointing at session. It expires with the session.
func (t *Tokens) Issue(session *domain.Session) (string, error) {
	claims := sessionClaims{
		Email: session.Email,
		Sid:   session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry. Any failure is reported as
// domain.ErrUnauthenticated.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	return t.parse(raw,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
}

// VerifyIgnoringExpiry checks the signature only. Used on sign-out, where an
// expired credential must still identify the session to destroy.
func (t *Tokens) VerifyIgnoringExpiry(raw string) (*Claims, error) {
	return t.parse(raw,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
}

func (t *Tokens) parse(raw string, opts ...jwt.ParserOption) (*Claims, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(t.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrSessionExpired)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if claims.Sid == "" || claims.Subject == "" {
		return nil, domain.ErrUnauthenticated
	}

	out := &Claims{
		SessionID: claims.Sid,
		UserID:    claims.Subject,
		Email:     claims.Email,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
