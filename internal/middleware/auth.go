package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"inkwell/internal/models"
	"inkwell/internal/session"

	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"

// LoadUser resolves the session cookie and stores the user in the context.
// An invalid cookie simply leaves the request anonymous.
func LoadUser(sm *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := sm.FromRequest(c.Request); user != nil {
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

// RollSession hands an authenticated user a new token on every response.
func RollSession(sm *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user != nil {
			if err := sm.Issue(c.Request.Context(), c.Writer, user); err != nil {
				slog.Error("session rotation failed", "user", user.Username, "error", err)
			}
		}
		c.Next()
	}
}

// AuthRequired sends anonymous visitors to the login page, remembering where they were.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, "/login/?source_url="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the signed-in user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

const SiteTitleKey = "site_title"

// SiteTitle exposes the configured blog title to the renderer.
func SiteTitle(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(SiteTitleKey, title)
		c.Next()
	}
}
