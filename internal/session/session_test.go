package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, debug bool) (*Manager, *models.User) {
	t.Helper()
	s := storetest.New(t)
	u := &models.User{Username: "alice", Level: models.LevelVisitor}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return NewManager(s.Users(), debug), u
}

func issuedCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func TestIssueAndResolve(t *testing.T) {
	ctx := context.Background()
	m, u := setup(t, false)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(ctx, rec, u))
	c := issuedCookie(t, rec)

	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(MaxAge.Seconds()), c.MaxAge)
	assert.True(t, strings.HasPrefix(c.Value, "alice="))

	got := m.Resolve(ctx, c.Value)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
}

func TestResolveRejectsMutations(t *testing.T) {
	ctx := context.Background()
	m, u := setup(t, true)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(ctx, rec, u))
	value := issuedCookie(t, rec).Value

	for i := len("alice="); i < len(value); i++ {
		b := []byte(value)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		assert.Nil(t, m.Resolve(ctx, string(b)), "mutation at %d", i)
	}

	for _, bad := range []string{
		"",
		"alice",
		"alice=",
		"=" + u.SessionToken,
		"bob=" + u.SessionToken,
		"alice=" + u.SessionToken + "=x",
		"alice=" + u.SessionToken[:31],
		"alice=" + u.SessionToken + "0",
	} {
		assert.Nil(t, m.Resolve(ctx, bad), bad)
	}
}

func TestRotationInvalidatesPreviousToken(t *testing.T) {
	ctx := context.Background()
	m, u := setup(t, true)

	first := httptest.NewRecorder()
	require.NoError(t, m.Issue(ctx, first, u))
	old := issuedCookie(t, first).Value

	second := httptest.NewRecorder()
	require.NoError(t, m.Issue(ctx, second, u))
	fresh := issuedCookie(t, second).Value

	assert.NotEqual(t, old, fresh)
	assert.Nil(t, m.Resolve(ctx, old))
	assert.NotNil(t, m.Resolve(ctx, fresh))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	m, u := setup(t, true)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(ctx, rec, u))
	value := issuedCookie(t, rec).Value

	out := httptest.NewRecorder()
	require.NoError(t, m.Clear(ctx, out, u))
	assert.Nil(t, m.Resolve(ctx, value))
	assert.Less(t, issuedCookie(t, out).MaxAge, 0)
}

func TestFromRequestRequiresSecureOutsideDebug(t *testing.T) {
	ctx := context.Background()
	m, u := setup(t, false)
	rec := httptest.NewRecorder()
	require.NoError(t, m.Issue(ctx, rec, u))
	c := issuedCookie(t, rec)

	plain := httptest.NewRequest(http.MethodGet, "http://blog.test/", nil)
	plain.AddCookie(&http.Cookie{Name: CookieName, Value: c.Value})
	assert.Nil(t, m.FromRequest(plain))

	proxied := httptest.NewRequest(http.MethodGet, "http://blog.test/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	proxied.AddCookie(&http.Cookie{Name: CookieName, Value: c.Value})
	assert.NotNil(t, m.FromRequest(proxied))
}
