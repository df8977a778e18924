package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(apiBase string) Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/auth/discord/callback",
		APIBase:      apiBase,
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, testConfig("").Validate())

	incomplete := testConfig("")
	incomplete.ClientSecret = ""
	assert.Error(t, incomplete.Validate())
}

func TestAuthorizeURL(t *testing.T) {
	raw := testConfig("").AuthorizeURL("signed-state")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "identify", q.Get("scope"))
	assert.Equal(t, "signed-state", q.Get("state"))

	// no state param at all when state is empty
	bare, err := url.Parse(testConfig("").AuthorizeURL(""))
	require.NoError(t, err)
	_, has := bare.Query()["state"]
	assert.False(t, has)
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":604800,"scope":"identify"}`))
	}))
	defer srv.Close()

	token, err := testConfig(srv.URL).ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
}

func TestExchangeCodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testConfig(srv.URL).ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/@me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"100000000000000001","username":"buyer","avatar":"abc123"}`))
	}))
	defer srv.Close()

	user, err := testConfig(srv.URL).FetchUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "100000000000000001", user.ID)
	assert.Equal(t, "buyer", user.Username)
}

func TestFetchUserUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"401: Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testConfig(srv.URL).FetchUser(context.Background(), "expired")
	assert.Error(t, err)
}
