package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"inkwell/internal/backup"
	"inkwell/internal/middleware"
	"inkwell/internal/oauth"
	"inkwell/internal/services"
	"inkwell/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	obj["CurrentUser"] = middleware.CurrentUser(c)
	obj["CurrentPath"] = c.Request.URL.Path
	obj["SiteTitle"] = c.GetString(middleware.SiteTitleKey)
	obj["Flashes"] = takeFlashes(c)
	obj["CSRFToken"] = middleware.CSRFToken(c)

	c.HTML(code, name, obj)
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// RenderFailure maps a domain error onto an error page. Unexpected errors are logged.
func RenderFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, services.ErrUnknownProvider):
		RenderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
	case errors.Is(err, services.ErrForbidden), errors.Is(err, backup.ErrForbidden):
		RenderError(c, http.StatusForbidden, "You are not allowed to do that.")
	case errors.Is(err, services.ErrCommentsClosed):
		RenderError(c, http.StatusForbidden, "Comments are closed for this post.")
	case errors.Is(err, services.ErrInvalidLevel):
		RenderError(c, http.StatusBadRequest, "Unknown access level.")
	case errors.Is(err, services.ErrReservedName):
		RenderError(c, http.StatusBadRequest, "That file name is reserved. Rename the file and upload it again.")
	case errors.Is(err, services.ErrLastOwner):
		RenderError(c, http.StatusConflict, "The blog must keep at least one owner.")
	case errors.Is(err, oauth.ErrUpstream):
		slog.Error("identity provider failure", "path", c.Request.URL.Path, "error", err)
		RenderError(c, http.StatusBadGateway, "The identity provider could not be reached. Please try again.")
	default:
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		RenderError(c, http.StatusInternalServerError, "Internal server error.")
	}
}

func takeFlashes(c *gin.Context) []any {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	s := sessions.Default(c)
	flashes := s.Flashes()
	if len(flashes) > 0 {
		if err := s.Save(); err != nil {
			slog.Warn("flash cookie not saved", "error", err)
		}
	}
	return flashes
}

// addFlash queues a one-shot message for the next rendered page.
func addFlash(c *gin.Context, msg string) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return
	}
	s := sessions.Default(c)
	s.AddFlash(msg)
	if err := s.Save(); err != nil {
		slog.Warn("flash cookie not saved", "error", err)
	}
}

// localTarget returns raw when it points into this site, as a path or as an
// absolute URL on the request host, and fallback otherwise.
func localTarget(c *gin.Context, raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fallback
	}
	if u.Scheme == "" && u.Host == "" {
		if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.HasPrefix(raw, "/\\") {
			return raw
		}
		return fallback
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == c.Request.Host {
		return u.RequestURI()
	}
	return fallback
}

// back sends the client to the referring page of this site, or to fallback.
func back(c *gin.Context, fallback string) {
	c.Redirect(http.StatusFound, localTarget(c, c.Request.Referer(), fallback))
}

// pageNumber parses the optional zero-based :page segment.
func pageNumber(c *gin.Context) (int, bool) {
	raw := c.Param("page")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func checked(c *gin.Context, field string) bool {
	_, ok := c.GetPostForm(field)
	return ok
}
