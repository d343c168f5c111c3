// Package session implements the rolling session cookie. The cookie carries
// "<username>=<token>"; every authenticated response replaces the token.
package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/utils"
)

const (
	CookieName = "session_id"
	MaxAge     = 30 * 24 * time.Hour
)

// Users is the slice of the user repository the session manager relies on.
type Users interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	SetSessionToken(ctx context.Context, id uint, token string) error
}

type Manager struct {
	users Users
	debug bool
}

// NewManager returns a manager that marks cookies Secure unless debug is set.
func NewManager(users Users, debug bool) *Manager {
	return &Manager{users: users, debug: debug}
}

// Resolve maps a cookie value to its user. Any malformed or stale value yields nil.
func (m *Manager) Resolve(ctx context.Context, value string) *models.User {
	parts := strings.Split(value, "=")
	if len(parts) != 2 {
		return nil
	}
	username, token := parts[0], parts[1]
	if username == "" || len(token) != utils.TokenLength {
		return nil
	}

	u, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		return nil
	}
	if len(u.SessionToken) != utils.TokenLength ||
		subtle.ConstantTimeCompare([]byte(u.SessionToken), []byte(token)) != 1 {
		return nil
	}
	return u
}

// FromRequest resolves the session cookie of r. Outside debug mode the cookie is
// ignored on plain HTTP requests.
func (m *Manager) FromRequest(r *http.Request) *models.User {
	if !m.debug && !IsSecure(r) {
		return nil
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	return m.Resolve(r.Context(), c.Value)
}

// Issue stores a fresh token for u and sets the matching cookie on w.
// Concurrent requests of the same user race here; the last write wins and the
// losing browser has to sign in again.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, u *models.User) error {
	token := utils.NewToken()
	if err := m.users.SetSessionToken(ctx, u.ID, token); err != nil {
		return err
	}
	u.SessionToken = token
	m.SetCookie(w, CookieName, u.Username+"="+token, MaxAge)
	return nil
}

// Clear forgets the stored token of u and expires the cookie.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, u *models.User) error {
	if err := m.users.SetSessionToken(ctx, u.ID, ""); err != nil {
		return err
	}
	u.SessionToken = ""
	m.ExpireCookie(w, CookieName)
	return nil
}

// SetCookie writes an HttpOnly cookie on the site root.
func (m *Manager) SetCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   !m.debug,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) ExpireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   !m.debug,
		SameSite: http.SameSiteLaxMode,
	})
}

// Debug reports whether cookies are issued without the Secure flag.
func (m *Manager) Debug() bool {
	return m.debug
}

// IsSecure reports whether r reached the site over TLS, directly or through a proxy.
func IsSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
