package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"golang.org/x/oauth2"
)

// Auth0OAuthConfig is the OAuth2 configuration for the Auth0 tenant
var Auth0OAuthConfig = &oauth2.Config{}

// Auth0UserInfo is the payload of the Auth0 /userinfo endpoint
type Auth0UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Nickname      string `json:"nickname"`
	Picture       string `json:"picture"`
}

// InitOAuthConfig loads the Auth0 tenant configuration from settings.
// Endpoints are derived from AUTH0.DOMAIN.
func InitOAuthConfig() {
	domain := settings.Get("AUTH0.DOMAIN").String()
	if domain == "" {
		if !MockEnabled() {
			log.Warning("AUTH0.DOMAIN not configured, Auth0 login is unavailable")
		}
		return
	}

	Auth0OAuthConfig = &oauth2.Config{
		ClientID:     settings.Get("AUTH0.CLIENT_ID").String(),
		ClientSecret: settings.Get("AUTH0.CLIENT_SECRET").String(),
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("https://%s/authorize", domain),
			TokenURL: fmt.Sprintf("https://%s/oauth/token", domain),
		},
	}
}

// MockEnabled reports whether the mock identity provider is active. With the
// mock enabled, the login flow skips Auth0 entirely and issues tokens for a
// synthetic subject.
func MockEnabled() bool {
	return settings.Get("AUTH0.MOCK").Bool()
}

// FetchUserInfo retrieves the user profile from Auth0 for an exchanged token
func FetchUserInfo(ctx context.Context, token *oauth2.Token) (*Auth0UserInfo, error) {
	domain := settings.Get("AUTH0.DOMAIN").String()
	client := Auth0OAuthConfig.Client(ctx, token)
	resp, err := client.Get(fmt.Sprintf("https://%s/userinfo", domain))
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("userinfo request returned status %d", resp.StatusCode)
	}

	var info Auth0UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if info.Name == "" {
		info.Name = info.Nickname
	}
	return &info, nil
}
