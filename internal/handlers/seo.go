package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
)

type SEOHandler struct {
	sitemap *services.Sitemap
	siteURL string
}

func NewSEOHandler(sitemap *services.Sitemap, siteURL string) *SEOHandler {
	return &SEOHandler{sitemap: sitemap, siteURL: siteURL}
}

// RobotsTxt keeps crawlers out of the admin and login flows.
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /admin/
Disallow: /login/
Disallow: /logout/
Disallow: /oauth2_login/
Disallow: /oauth2callback/
Disallow: /submit_comment/
Disallow: /toggle_delete_comment/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

func (h *SEOHandler) SitemapXML(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.sitemap.Write(c.Request.Context(), &buf); err != nil {
		RenderFailure(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", buf.Bytes())
}
