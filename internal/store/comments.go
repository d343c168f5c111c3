package store

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

type Comments struct {
	db *gorm.DB
}

func (r *Comments) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// SetDeleted persists the soft-delete flag of c.
func (r *Comments) SetDeleted(ctx context.Context, c *models.Comment) error {
	return r.db.WithContext(ctx).Model(c).Update("deleted", c.Deleted).Error
}

// PostID returns the id of the post the comment belongs to.
func (r *Comments) PostID(ctx context.Context, commentID uint) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Table("post_comments").
		Where("comment_id = ?", commentID).
		Pluck("post_id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}
