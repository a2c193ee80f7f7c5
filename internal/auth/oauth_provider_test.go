package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newUserInfoServer(t *testing.T, prefix string, user oauthUser, emails []githubEmail) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(prefix+"/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-access-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc(prefix+"/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(emails)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "test-access-token", TokenType: "Bearer"}
}

func TestOAuthProvider_GitHubIdentity(t *testing.T) {
	server := newUserInfoServer(t, "", oauthUser{
		ID:        583231,
		Login:     "octocat",
		AvatarURL: "https://avatars.example.com/u/583231",
	}, []githubEmail{
		{Email: "unverified@example.com", Primary: false, Verified: false},
		{Email: "octocat@github.com", Primary: true, Verified: true},
	})

	p := NewGitHubProvider(OAuthProviderConfig{ClientID: "id", ClientSecret: "secret"})
	p.apiBaseURL = server.URL

	identity, err := p.GetIdentity(context.Background(), testToken())
	require.NoError(t, err)

	assert.Equal(t, "583231", identity.ProviderUserID)
	assert.Equal(t, "octocat", identity.Username)
	assert.Equal(t, "octocat@github.com", identity.Email)
	assert.Equal(t, "https://avatars.example.com/u/583231", identity.Avatar)
	assert.False(t, identity.ForceSameID)
}

func TestOAuthProvider_GiteaIdentity(t *testing.T) {
	server := newUserInfoServer(t, "/api/v1", oauthUser{
		ID:    7,
		Login: "gitea-user",
		Email: "gitea@example.com",
	}, nil)

	p := NewGiteaProvider(OAuthProviderConfig{ClientID: "id", ClientSecret: "secret"}, server.URL+"/")
	assert.Equal(t, "gitea", p.GetProvider())

	identity, err := p.GetIdentity(context.Background(), testToken())
	require.NoError(t, err)
	assert.Equal(t, "7", identity.ProviderUserID)
	assert.Equal(t, "gitea@example.com", identity.Email)
}

func TestOAuthProvider_MissingUserID(t *testing.T) {
	server := newUserInfoServer(t, "", oauthUser{Login: "ghost"}, nil)

	p := NewGitHubProvider(OAuthProviderConfig{})
	p.apiBaseURL = server.URL

	identity, err := p.GetIdentity(context.Background(), testToken())
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, ErrOAuthUserInfo)
}

func TestOAuthProvider_UserInfoError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	p := NewGitHubProvider(OAuthProviderConfig{})
	p.apiBaseURL = server.URL

	identity, err := p.GetIdentity(context.Background(), testToken())
	assert.Nil(t, identity)
	assert.ErrorIs(t, err, ErrOAuthUserInfo)
	assert.Contains(t, err.Error(), "401")
}

func TestOAuthProvider_Unsupported(t *testing.T) {
	p := &OAuthProvider{provider: "gitlab", config: &oauth2.Config{}}
	_, err := p.GetIdentity(context.Background(), testToken())
	assert.ErrorIs(t, err, ErrOAuthUnsupported)
}

func TestOAuthProvider_GetAuthURL(t *testing.T) {
	p := NewGiteaProvider(OAuthProviderConfig{
		ClientID:    "client-123",
		RedirectURL: "http://localhost:8080/oauth/gitea/callback",
		Scopes:      []string{"read:user"},
	}, "https://gitea.example.com")

	authURL, err := url.Parse(p.GetAuthURL("state-xyz"))
	require.NoError(t, err)

	assert.Equal(t, "gitea.example.com", authURL.Host)
	assert.Equal(t, "/login/oauth/authorize", authURL.Path)
	assert.Equal(t, "client-123", authURL.Query().Get("client_id"))
	assert.Equal(t, "state-xyz", authURL.Query().Get("state"))
}

func TestPrimaryEmail(t *testing.T) {
	assert.Empty(t, primaryEmail(nil))
	assert.Equal(t, "b@example.com", primaryEmail([]githubEmail{
		{Email: "a@example.com", Primary: true, Verified: false},
		{Email: "b@example.com", Primary: false, Verified: true},
	}))
}
