package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"inkwell/internal/session"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
	CSRFTokenKey   = "csrf_token"

	csrfMaxAge = 365 * 24 * time.Hour
)

// CSRF guards every unsafe request with a double submitted token: the value of
// the csrftoken cookie must come back in the csrf_token form field or the
// X-CSRF-Token header. Visitors without the cookie are handed one.
func CSRF(sm *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if ck, err := c.Request.Cookie(CSRFCookieName); err == nil && len(ck.Value) == utils.TokenLength {
			token = ck.Value
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		default:
			sent := c.GetHeader(CSRFHeaderName)
			if sent == "" {
				sent = c.PostForm(CSRFFieldName)
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sent)) != 1 {
				slog.Warn("csrf check failed", "method", c.Request.Method, "path", c.Request.URL.Path, "cookie", token != "")
				c.String(http.StatusForbidden, "CSRF verification failed. Reload the page and try again.")
				c.Abort()
				return
			}
		}

		if token == "" {
			token = utils.NewToken()
			sm.SetCookie(c.Writer, CSRFCookieName, token, csrfMaxAge)
		}
		c.Set(CSRFTokenKey, token)
		c.Next()
	}
}

// CSRFToken returns the token forms must echo back.
func CSRFToken(c *gin.Context) string {
	return c.GetString(CSRFTokenKey)
}
