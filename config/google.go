package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type GoogleConfig struct {
	Config     *oauth2.Config
	httpClient *http.Client
	tokenInfo  string
	userInfo   string
}

// GoogleUserInfo is decoded from both the userinfo and tokeninfo endpoints. Userinfo reports
// verified_email, tokeninfo reports email_verified as a string.
type GoogleUserInfo struct {
	ID            string     `json:"id"`
	Sub           string     `json:"sub"`
	Email         string     `json:"email"`
	VerifiedEmail bool       `json:"verified_email"`
	EmailVerified googleBool `json:"email_verified"`
	Name          string     `json:"name"`
	Picture       string     `json:"picture"`
	Aud           string     `json:"aud"`
}

// googleBool accepts true, false, "true" and "false".
type googleBool bool

func (b *googleBool) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = googleBool(v)
	return nil
}

// NewGoogleConfig returns nil when Google sign-in is not configured.
func NewGoogleConfig(cfg GoogleOAuthConfig) *GoogleConfig {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}

	return &GoogleConfig{
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tokenInfo:  "https://oauth2.googleapis.com/tokeninfo",
		userInfo:   "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

// VerifyIDToken checks an ID token with Google and that it was issued for this client.
func (g *GoogleConfig) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	info, err := g.fetch(ctx, g.tokenInfo+"?id_token="+url.QueryEscape(idToken), "")
	if err != nil {
		return nil, err
	}
	if info.Aud != g.Config.ClientID {
		return nil, fmt.Errorf("token issued for another client")
	}
	if info.ID == "" {
		info.ID = info.Sub
	}
	info.VerifiedEmail = info.VerifiedEmail || bool(info.EmailVerified)
	return info, nil
}

// ExchangeCode trades an authorization code for the signed-in user's profile.
func (g *GoogleConfig) ExchangeCode(ctx context.Context, code string) (*GoogleUserInfo, error) {
	token, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return g.fetch(ctx, g.userInfo, token.AccessToken)
}

func (g *GoogleConfig) fetch(ctx context.Context, endpoint, accessToken string) (*GoogleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google returned status %d", resp.StatusCode)
	}

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &userInfo, nil
}
