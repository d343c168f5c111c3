package handlers

import (
	"fmt"

	"inkwell/internal/middleware"
	"inkwell/internal/services"
	"inkwell/internal/store"
	"inkwell/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.Comments
}

func NewCommentHandler(comments *services.Comments) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// Submit handles POST /submit_comment/:id/.
func (h *CommentHandler) Submit(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	post, comment, err := h.comments.Submit(c.Request.Context(), middleware.CurrentUser(c), id, c.PostForm("comment"))
	if err != nil {
		RenderFailure(c, err)
		return
	}
	back(c, fmt.Sprintf("%s#comment-%d", post.Path(), comment.ID))
}

// ToggleDelete handles POST /toggle_delete_comment/:id/.
func (h *CommentHandler) ToggleDelete(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		RenderFailure(c, store.ErrNotFound)
		return
	}
	ctx := c.Request.Context()
	comment, err := h.comments.ToggleDelete(ctx, middleware.CurrentUser(c), id)
	if err != nil {
		RenderFailure(c, err)
		return
	}
	post, err := h.comments.PostOf(ctx, comment.ID)
	if err != nil {
		back(c, "/")
		return
	}
	back(c, fmt.Sprintf("%s#comment-%d", post.Path(), comment.ID))
}

