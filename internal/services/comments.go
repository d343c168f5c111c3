package services

import (
	"context"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/utils"
)

type Comments struct {
	store *store.Store

	Now func() time.Time
}

func NewComments(st *store.Store) *Comments {
	return &Comments{store: st, Now: utcNow}
}

// Submit adds a sanitized comment by author to the post with the given id.
func (s *Comments) Submit(ctx context.Context, author *models.User, postID uint, body string) (*models.Post, *models.Comment, error) {
	if !author.Can(models.CommentWrite) {
		return nil, nil, ErrForbidden
	}
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if !post.AllowComments {
		return post, nil, ErrCommentsClosed
	}

	clean := strings.TrimSpace(utils.SanitizeComment(body))
	comment := &models.Comment{AuthorID: &author.ID, Body: clean, Date: s.Now()}
	if err := s.store.Posts().AddComment(ctx, post, comment); err != nil {
		return nil, nil, err
	}
	return post, comment, nil
}

// ToggleDelete flips the soft-delete flag. The author may toggle their own
// comment; moderators holding COMMENT_DELETE may toggle any.
func (s *Comments) ToggleDelete(ctx context.Context, actor *models.User, id uint) (*models.Comment, error) {
	c, err := s.store.Comments().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.TogglableBy(actor) {
		return nil, ErrForbidden
	}
	c.Deleted = !c.Deleted
	if err := s.store.Comments().SetDeleted(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PostOf returns the post a comment belongs to.
func (s *Comments) PostOf(ctx context.Context, commentID uint) (*models.Post, error) {
	id, err := s.store.Comments().PostID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.store.Posts().FindByID(ctx, id)
}
