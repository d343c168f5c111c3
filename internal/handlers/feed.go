package handlers

import (
	"bytes"
	"net/http"

	"inkwell/internal/services"

	"github.com/gin-gonic/gin"
)

const atomContentType = "application/atom+xml; charset=utf-8"

type FeedHandler struct {
	feeds *services.Feeds
}

func NewFeedHandler(feeds *services.Feeds) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

func (h *FeedHandler) Site(c *gin.Context) {
	h.write(c, services.FeedScope{})
}

func (h *FeedHandler) Tag(c *gin.Context) {
	h.write(c, services.FeedScope{TagUID: c.Param("uid")})
}

func (h *FeedHandler) Author(c *gin.Context) {
	h.write(c, services.FeedScope{Username: c.Param("username")})
}

func (h *FeedHandler) write(c *gin.Context, scope services.FeedScope) {
	var buf bytes.Buffer
	if err := h.feeds.Write(c.Request.Context(), &buf, scope); err != nil {
		RenderFailure(c, err)
		return
	}
	c.Data(http.StatusOK, atomContentType, buf.Bytes())
}
