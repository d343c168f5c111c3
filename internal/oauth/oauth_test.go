package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"inkwell/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves token, profile and emails endpoints the way GitHub does.
func fakeGitHub(t *testing.T, profile map[string]any, emails []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad_verification_code"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123", "token_type": "bearer"})
	})
	authorized := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			h(w, r)
		}
	}
	mux.HandleFunc("/user", authorized(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(profile)
	}))
	mux.HandleFunc("/user/emails", authorized(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(emails)
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srv *httptest.Server) *Provider {
	return &Provider{
		Name: "github",
		OAuth2: &oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURL:  CallbackURL("https://blog.test", "github"),
			Endpoint: oauth2.Endpoint{
				AuthURL:   srv.URL + "/authorize",
				TokenURL:  srv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		ProfileURL: srv.URL + "/user",
		EmailsURL:  srv.URL + "/user/emails",
		Fields:     FieldMap{ID: "id", Name: "name", Email: "email", Picture: "avatar_url"},
		HTTPClient: srv.Client(),
	}
}

func TestExchangeAndProfile(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 9007199254740993, "name": "Ada Lovelace", "email": nil, "avatar_url": "https://img.test/ada.png"},
		[]map[string]any{
			{"email": "other@example.com", "primary": false, "verified": true},
			{"email": "ada@example.com", "primary": true, "verified": true},
		})
	p := testProvider(srv)
	ctx := context.Background()

	ex, err := p.Exchange(ctx, "good-code")
	require.NoError(t, err)

	profile, err := ex.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", profile.ID)
	assert.Equal(t, "Ada Lovelace", profile.Name)
	assert.Equal(t, "", profile.Email)
	assert.Equal(t, "https://img.test/ada.png", profile.PictureURL)

	email, err := ex.PrimaryEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)
}

func TestPrimaryEmailFallsBackToFirst(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 1, "name": "x"},
		[]map[string]any{{"email": "first@example.com"}, {"email": "second@example.com"}})
	ctx := context.Background()

	ex, err := testProvider(srv).Exchange(ctx, "good-code")
	require.NoError(t, err)
	email, err := ex.PrimaryEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first@example.com", email)
}

func TestExchangeFailure(t *testing.T) {
	srv := fakeGitHub(t, nil, nil)
	_, err := testProvider(srv).Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestNewProviders(t *testing.T) {
	cfg := config.FromEnv(func(key string) string {
		return map[string]string{
			"SECURE_SITE_URL":         "https://blog.test/",
			"GITHUB_OAUTH2_CLIENT_ID": "gh-id",
		}[key]
	})
	ps := NewProviders(cfg)

	assert.Equal(t, []string{"github"}, ps.Names())
	p, ok := ps.Get("github")
	require.True(t, ok)
	assert.Equal(t, "https://blog.test/oauth2callback/github/", p.OAuth2.RedirectURL)

	_, ok = ps.Get("google")
	assert.False(t, ok)

	u, err := url.Parse(p.AuthCodeURL("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Query().Get("state"))
	assert.Equal(t, "https://blog.test/oauth2callback/github/", u.Query().Get("redirect_uri"))
}
