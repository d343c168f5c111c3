package models

import (
	"fmt"
	"time"
)

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;index" json:"name"`
	UID  string `gorm:"column:uid;size:50;uniqueIndex;not null" json:"uid"`
}

// ReservedFileName cannot be used for an attachment; backup archives store the
// owning post or page record under that name.
const ReservedFileName = "index.yaml"

// File is an attachment owned by exactly one post or page. Names are unique within that owner.
type File struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Content []byte `json:"-"`
}

// Post is hard-deleted together with its files and comments.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UID           string    `gorm:"column:uid;size:150;uniqueIndex;not null" json:"uid"`
	Title         string    `gorm:"size:150;not null" json:"title"`
	Body          string    `gorm:"type:text" json:"body"` // HTML
	Tags          []Tag     `gorm:"many2many:post_tags;" json:"tags"`
	Authors       []User    `gorm:"many2many:post_authors;" json:"authors"`
	Draft         bool      `gorm:"not null;index" json:"draft"`
	AllowComments bool      `gorm:"not null" json:"allow_comments"`
	Date          time.Time `gorm:"not null;index" json:"date"`
	EditDate      time.Time `gorm:"not null" json:"edit_date"`
	Files         []File    `gorm:"many2many:post_files;" json:"files"`
	Comments      []Comment `gorm:"many2many:post_comments;" json:"comments"`
}

// NewPost returns an unsaved draft that accepts comments, dated now.
func NewPost(now time.Time) *Post {
	return &Post{
		Draft:         true,
		AllowComments: true,
		Date:          now,
		EditDate:      now,
	}
}

// Path is the canonical URL path of the post: /<yyyy>/<mm>/<uid>/.
func (p *Post) Path() string {
	return fmt.Sprintf("/%04d/%02d/%s/", p.Date.Year(), int(p.Date.Month()), p.UID)
}

// FileNamed returns the attachment with the given name, or nil.
func (p *Post) FileNamed(name string) *File {
	return fileNamed(p.Files, name)
}

// WrittenBy reports whether u is one of the post's authors.
func (p *Post) WrittenBy(u *User) bool {
	if u == nil {
		return false
	}
	for _, a := range p.Authors {
		if a.ID == u.ID {
			return true
		}
	}
	return false
}

// Page is hard-deleted together with its files. EditDate is refreshed by every admin save.
type Page struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UID      string    `gorm:"column:uid;size:150;uniqueIndex;not null" json:"uid"`
	Title    string    `gorm:"size:150;not null" json:"title"`
	Body     string    `gorm:"type:text" json:"body"`
	Files    []File    `gorm:"many2many:page_files;" json:"files"`
	EditDate time.Time `gorm:"not null" json:"edit_date"`
}

func (p *Page) Path() string {
	return "/page/" + p.UID + "/"
}

func (p *Page) FileNamed(name string) *File {
	return fileNamed(p.Files, name)
}

func fileNamed(files []File, name string) *File {
	for i := range files {
		if files[i].Name == name {
			return &files[i]
		}
	}
	return nil
}
