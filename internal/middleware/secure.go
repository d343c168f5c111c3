package middleware

import (
	"net/http"

	"inkwell/internal/session"

	"github.com/gin-gonic/gin"
)

// SecureRedirect moves plain-HTTP requests to secureSiteURL. It is a no-op in debug mode.
func SecureRedirect(secureSiteURL string, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if debug || session.IsSecure(c.Request) {
			c.Next()
			return
		}
		code := http.StatusFound
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			code = http.StatusTemporaryRedirect
		}
		c.Redirect(code, secureSiteURL+c.Request.URL.RequestURI())
		c.Abort()
	}
}
