package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/store"

	"github.com/gin-gonic/gin"
)

// BlogHandler serves the public side: listings, posts, pages and their attachments.
type BlogHandler struct {
	content *services.Content
}

func NewBlogHandler(content *services.Content) *BlogHandler {
	return &BlogHandler{content: content}
}

func (h *BlogHandler) Index(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	list, err := h.content.ListPosts(c.Request.Context(), store.PostFilter{}, page)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	renderList(c, list, "/", "/posts/")
}

func (h *BlogHandler) Author(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	list, err := h.content.ListByAuthor(c.Request.Context(), c.Param("username"), page)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	base := "/author/" + list.Author.Username + "/"
	renderList(c, list, base, base)
}

func (h *BlogHandler) Tag(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	list, err := h.content.ListByTag(c.Request.Context(), c.Param("uid"), page)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	base := "/tag/" + list.Tag.UID + "/"
	renderList(c, list, base, base)
}

func renderList(c *gin.Context, list *services.PostList, first, prefix string) {
	Render(c, http.StatusOK, "blog/list.html", gin.H{
		"List":     list,
		"NewerURL": pageURL(list.Newer, first, prefix),
		"OlderURL": pageURL(list.Older, first, prefix),
	})
}

// pageURL links page n of a listing; page 0 lives at first.
func pageURL(n int, first, prefix string) string {
	switch {
	case n < 0:
		return ""
	case n == 0:
		return first
	}
	return prefix + strconv.Itoa(n) + "/"
}

// Post serves /<yyyy>/<mm>/<uid>/.
func (h *BlogHandler) Post(c *gin.Context) {
	year, month, ok := postDate(c)
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	post, err := h.content.Post(c.Request.Context(), middleware.CurrentUser(c), year, month, c.Param("uid"))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "blog/post.html", gin.H{"Post": post})
}

func (h *BlogHandler) PostFile(c *gin.Context) {
	year, month, ok := postDate(c)
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	f, err := h.content.PostFile(c.Request.Context(), middleware.CurrentUser(c), year, month, c.Param("uid"), c.Param("filename"))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	serveFile(c, f)
}

func (h *BlogHandler) Page(c *gin.Context) {
	page, err := h.content.Page(c.Request.Context(), c.Param("uid"))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "blog/page.html", gin.H{"Page": page})
}

func (h *BlogHandler) PageFile(c *gin.Context) {
	f, err := h.content.PageFile(c.Request.Context(), c.Param("uid"), c.Param("filename"))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	serveFile(c, f)
}

// postDate reads the four-digit year and two-digit month of a post URL.
func postDate(c *gin.Context) (int, int, bool) {
	y, m := c.Param("year"), c.Param("month")
	if len(y) != 4 || len(m) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// serveFile sends an attachment. Only raster images are shown inline; anything
// else, svg included, is offered as a download so uploaded markup never runs
// on the blog's origin.
func serveFile(c *gin.Context, f *models.File) {
	contentType := mime.TypeByExtension(filepath.Ext(f.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("X-Content-Type-Options", "nosniff")
	if !inlineType(contentType) {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	}
	c.Data(http.StatusOK, contentType, f.Content)
}

func inlineType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "image/svg")
}
