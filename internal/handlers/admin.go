package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/store"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler implements the editor and overview screens. Capability checks
// live in the services; the handlers only translate forms.
type AdminHandler struct {
	content  *services.Content
	accounts *services.Accounts
}

func NewAdminHandler(content *services.Content, accounts *services.Accounts) *AdminHandler {
	return &AdminHandler{content: content, accounts: accounts}
}

func (h *AdminHandler) PostsOverview(c *gin.Context) {
	posts, err := h.content.AdminPosts(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/posts.html", gin.H{"Posts": posts})
}

func (h *AdminHandler) PagesOverview(c *gin.Context) {
	pages, err := h.content.AdminPages(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/pages.html", gin.H{"Pages": pages})
}

func (h *AdminHandler) UsersOverview(c *gin.Context) {
	users, err := h.accounts.Users(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/users.html", gin.H{"Users": users})
}

// ShowEditPost renders the editor for ?pk=<id>, or an empty draft without pk.
func (h *AdminHandler) ShowEditPost(c *gin.Context) {
	id, ok := optionalID(c.Query("pk"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	post, err := h.content.EditablePost(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/edit_post.html", gin.H{"Post": post})
}

func (h *AdminHandler) SavePost(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.Can(models.PostWrite) {
		RenderFailure(c, services.ErrForbidden)
		return
	}
	id, ok := optionalID(c.PostForm("pk"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	files, err := uploadedFiles(c)
	if err != nil {
		RenderError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.content.SavePost(c.Request.Context(), user, id, services.PostForm{
		Title:          c.PostForm("title"),
		Body:           c.PostForm("body"),
		Tags:           c.PostForm("tags"),
		Draft:          checked(c, "draft"),
		AllowComments:  checked(c, "allow_comments"),
		ForceDate:      checked(c, "force_date"),
		ForcedDate:     c.PostForm("forced_date"),
		ForceEditDate:  checked(c, "force_edit_date"),
		ForcedEditDate: c.PostForm("forced_edit_date"),
		Files:          files,
	})
	if err != nil {
		RenderFailure(c, err)
		return
	}

	if post.Draft || len(files) > 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/admin/edit_post/?pk=%d", post.ID))
		return
	}
	c.Redirect(http.StatusFound, "/admin/posts_overview/")
}

func (h *AdminHandler) ShowEditPage(c *gin.Context) {
	id, ok := optionalID(c.Query("pk"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	page, err := h.content.EditablePage(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	Render(c, http.StatusOK, "admin/edit_page.html", gin.H{"Page": page})
}

func (h *AdminHandler) SavePage(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.Can(models.PageWrite) {
		RenderFailure(c, services.ErrForbidden)
		return
	}
	id, ok := optionalID(c.PostForm("pk"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	files, err := uploadedFiles(c)
	if err != nil {
		RenderError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.content.SavePage(c.Request.Context(), user, id, services.PageForm{
		Title:          c.PostForm("title"),
		Body:           c.PostForm("body"),
		ForceEditDate:  checked(c, "force_edit_date"),
		ForcedEditDate: c.PostForm("forced_edit_date"),
		Files:          files,
	})
	if err != nil {
		RenderFailure(c, err)
		return
	}

	if len(files) > 0 {
		c.Redirect(http.StatusFound, fmt.Sprintf("/admin/edit_page/?pk=%d", page.ID))
		return
	}
	c.Redirect(http.StatusFound, "/admin/pages_overview/")
}

// DeleteFile handles /admin/delete_file/:doc/:id/:filename/ where doc is post or page.
func (h *AdminHandler) DeleteFile(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	ctx, user, name := c.Request.Context(), middleware.CurrentUser(c), c.Param("filename")

	var editor string
	switch c.Param("doc") {
	case "post":
		if _, err := h.content.DeletePostFile(ctx, user, id, name); err != nil {
			RenderFailure(c, err)
			return
		}
		editor = fmt.Sprintf("/admin/edit_post/?pk=%d", id)
	case "page":
		if _, err := h.content.DeletePageFile(ctx, user, id, name); err != nil {
			RenderFailure(c, err)
			return
		}
		editor = fmt.Sprintf("/admin/edit_page/?pk=%d", id)
	default:
		RenderFailure(c, store.ErrNotFound)
		return
	}
	back(c, editor)
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	if err := h.content.DeletePost(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		RenderFailure(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/posts_overview/")
}

func (h *AdminHandler) DeletePage(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	if err := h.content.DeletePage(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		RenderFailure(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/pages_overview/")
}

// EditUser sets the access level and blocked flag from the users overview.
func (h *AdminHandler) EditUser(c *gin.Context) {
	id, ok := utils.ParseID(c.PostForm("pk"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	level, err := strconv.Atoi(c.PostForm("level"))
	if err != nil {
		RenderFailure(c, services.ErrInvalidLevel)
		return
	}
	_, err = h.accounts.UpdateAccess(c.Request.Context(), middleware.CurrentUser(c), id, models.AccessLevel(level), checked(c, "blocked"))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin/users_overview/")
}

// optionalID parses an editor pk; an empty value means a new record.
func optionalID(raw string) (uint, bool) {
	if raw == "" {
		return 0, true
	}
	return utils.ParseID(raw)
}

// uploadedFiles collects every file field of a multipart form, ordered by field name.
func uploadedFiles(c *gin.Context) ([]models.File, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var headers []*multipart.FileHeader
	for _, field := range fields {
		headers = append(headers, form.File[field]...)
	}
	return services.ReadUploads(headers)
}
