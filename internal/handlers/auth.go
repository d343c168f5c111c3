package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/services"
	"inkwell/internal/session"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	StateCookie     = "state"
	SourceURLCookie = "source_url"

	// transientMaxAge bounds the login round trip through the provider.
	transientMaxAge = 120 * time.Second
)

type AuthHandler struct {
	accounts *services.Accounts
	sessions *session.Manager
}

func NewAuthHandler(accounts *services.Accounts, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions}
}

// ShowLogin lists the configured identity providers.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{
		"Providers": h.accounts.ProviderNames(),
		"SourceURL": localTarget(c, c.Query("source_url"), "/"),
	})
}

// Login starts the authorization code flow with /oauth2_login/:provider/.
func (h *AuthHandler) Login(c *gin.Context) {
	provider, err := h.accounts.Provider(c.Param("provider"))
	if err != nil {
		RenderFailure(c, err)
		return
	}

	state := utils.NewToken()
	h.sessions.SetCookie(c.Writer, StateCookie, state, transientMaxAge)
	h.sessions.SetCookie(c.Writer, SourceURLCookie, localTarget(c, c.Query("source_url"), "/"), transientMaxAge)
	c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// Callback finishes the flow at /oauth2callback/:provider/.
func (h *AuthHandler) Callback(c *gin.Context) {
	provider, err := h.accounts.Provider(c.Param("provider"))
	if err != nil {
		RenderFailure(c, err)
		return
	}

	expected, _ := c.Cookie(StateCookie)
	got := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		slog.Warn("oauth state mismatch", "provider", provider.Name)
		RenderError(c, http.StatusForbidden, "The login request could not be verified. Please try again.")
		return
	}
	h.sessions.ExpireCookie(c.Writer, StateCookie)

	code := c.Query("code")
	if code == "" {
		RenderError(c, http.StatusBadRequest, "The identity provider did not grant access.")
		return
	}

	ctx := c.Request.Context()
	exchange, err := provider.Exchange(ctx, code)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	profile, err := exchange.Profile(ctx)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	user, err := h.accounts.SignIn(ctx, provider.Name, profile, exchange.PrimaryEmail)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	if err := h.sessions.Issue(ctx, c.Writer, user); err != nil {
		RenderFailure(c, err)
		return
	}

	source, _ := c.Cookie(SourceURLCookie)
	h.sessions.ExpireCookie(c.Writer, SourceURLCookie)
	c.Redirect(http.StatusFound, localTarget(c, source, "/"))
}

// Logout forgets the session token and returns to redirect_url or the index.
func (h *AuthHandler) Logout(c *gin.Context) {
	if user := middleware.CurrentUser(c); user != nil {
		if err := h.sessions.Clear(c.Request.Context(), c.Writer, user); err != nil {
			RenderFailure(c, err)
			return
		}
	} else {
		h.sessions.ExpireCookie(c.Writer, session.CookieName)
	}
	c.Redirect(http.StatusFound, localTarget(c, c.Query("redirect_url"), "/"))
}

func (h *AuthHandler) ShowElevation(c *gin.Context) {
	Render(c, http.StatusOK, "admin/elevation.html", nil)
}

// Elevate turns the current user into the owner when the one-time password
// matches and the blog has no owner yet.
func (h *AuthHandler) Elevate(c *gin.Context) {
	err := h.accounts.Elevate(c.Request.Context(), middleware.CurrentUser(c), c.PostForm("password"))
	switch {
	case err == nil:
		Render(c, http.StatusOK, "admin/elevation.html", gin.H{"Done": true})
	case errors.Is(err, services.ErrWrongSecret):
		Render(c, http.StatusForbidden, "admin/elevation.html", gin.H{"Error": "Wrong password."})
	case errors.Is(err, services.ErrOwnerExists):
		Render(c, http.StatusConflict, "admin/elevation.html", gin.H{"Error": "This blog already has an owner."})
	default:
		RenderFailure(c, err)
	}
}
