package models

import (
	"time"
)

// Comment is soft-deleted: Deleted is toggled and the row is kept for threading history.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	AuthorID *uint     `gorm:"index" json:"author_id"`
	Author   *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"author"`
	Body     string    `gorm:"type:text;not null" json:"body"` // sanitized HTML
	Date     time.Time `gorm:"not null" json:"date"`
	Hidden   bool      `gorm:"not null" json:"hidden"`
	Deleted  bool      `gorm:"not null" json:"deleted"`
}

// WrittenBy reports whether u authored the comment.
func (c *Comment) WrittenBy(u *User) bool {
	return u != nil && c.AuthorID != nil && *c.AuthorID == u.ID
}

// TogglableBy reports whether u may flip the deleted flag: the author while
// allowed to comment, or any moderator.
func (c *Comment) TogglableBy(u *User) bool {
	return (c.WrittenBy(u) && u.Can(CommentWrite)) || u.Can(CommentDelete)
}
