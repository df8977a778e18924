// Package auth implements the Discord OAuth authorization-code flow used to
// link a buyer's Discord identity to a storefront account.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIBase = "https://discord.com"

// Config carries the OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// APIBase overrides the Discord endpoint, used by tests. Empty means
	// the real API.
	APIBase string

	// HTTPClient overrides the transport. Nil means a client with a sane
	// timeout.
	HTTPClient *http.Client
}

func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return fmt.Errorf("oauth config incomplete: need client id, client secret and redirect uri")
	}
	return nil
}

func (c Config) apiBase() string {
	if c.APIBase != "" {
		return strings.TrimRight(c.APIBase, "/")
	}
	return defaultAPIBase
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// AuthorizeURL builds the Discord authorization redirect with the identify
// scope. state is passed through verbatim.
func (c Config) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.ClientID)
	q.Set("redirect_uri", c.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "identify")
	if state != "" {
		q.Set("state", state)
	}
	return c.apiBase() + "/oauth2/authorize?" + q.Encode()
}

// TokenResponse is Discord's answer to the code exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// DiscordUser is the linked identity fetched from /users/@me.
type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// ExchangeCode trades an authorization code for an access token.
func (c Config) ExchangeCode(ctx context.Context, code string) (TokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase()+"/api/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error exchanging code: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, fmt.Errorf("token exchange failed: %d %s", resp.StatusCode, string(body))
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return TokenResponse{}, fmt.Errorf("error decoding token response: %w", err)
	}
	return token, nil
}

// FetchUser loads the profile of the authorized user.
func (c Config) FetchUser(ctx context.Context, accessToken string) (DiscordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase()+"/api/users/@me", nil)
	if err != nil {
		return DiscordUser{}, fmt.Errorf("error creating user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return DiscordUser{}, fmt.Errorf("error fetching discord user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return DiscordUser{}, fmt.Errorf("fetch user failed: %d %s", resp.StatusCode, string(body))
	}

	var user DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return DiscordUser{}, fmt.Errorf("error decoding discord user: %w", err)
	}
	return user, nil
}
