// Package auth signs users in through an OAuth2 provider and keeps them
// signed in with a server-side session referenced by a signed cookie.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sweedalp/smart-bookmark-app/internal/domain"
)

// ProviderConfig describes the identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Provider runs the authorization-code exchange and reads the user's identity.
type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewProvider creates a provider client.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// AuthCodeURL returns the provider URL the browser is sent to.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// Exchange trades an authorization code for the user's identity.
func (p *Provider) Exchange(ctx context.Context, code string) (domain.Identity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("code exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("build userinfo request: %w", err)
	}

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return domain.Identity{}, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return domain.Identity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return domain.Identity{}, fmt.Errorf("userinfo has no subject")
	}

	return domain.Identity{UserID: info.Sub, Email: info.Email}, nil
}
