// Package backup writes and reads the portable archive: a zip holding YAML
// records plus the raw bytes of every attachment. Entry names are rooted:
//
//	/info.yaml                version marker
//	/tags.yaml, /users.yaml   lists of records
//	/posts/index.yaml         list of post ids
//	/posts/<id>/index.yaml    post record
//	/posts/<id>/<file>        attachment bytes
//	/pages/...                same layout as posts
//
// Readers accept the same names without the leading slash.
package backup

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/goccy/go-yaml"
)

// Version is the only archive format this build reads and writes.
const Version = "1.0"

var (
	ErrUnsupportedVersion = errors.New("unsupported backup version")
	ErrMalformedArchive   = errors.New("malformed backup archive")
	ErrReservedName       = errors.New("attachment uses a reserved archive name")
)

type Info struct {
	Version string `yaml:"version"`
}

type TagRecord struct {
	ID   uint   `yaml:"id"`
	Name string `yaml:"name"`
	UID  string `yaml:"uid"`
}

// UserRecord deliberately has no session token.
type UserRecord struct {
	ID          uint   `yaml:"id"`
	Name        string `yaml:"name"`
	OAuth2ID    string `yaml:"oauth2_id"`
	Level       int    `yaml:"level"`
	Username    string `yaml:"username"`
	Email       string `yaml:"email"`
	PictureURL  string `yaml:"picture_url"`
	Bio         string `yaml:"bio"`
	Blocked     bool   `yaml:"blocked"`
	HideContent bool   `yaml:"hide_content"`
	HidePicture bool   `yaml:"hide_picture"`
}

type CommentRecord struct {
	ID      uint   `yaml:"id"`
	Author  *uint  `yaml:"author"`
	Body    string `yaml:"body"`
	Date    string `yaml:"date"`
	Hidden  bool   `yaml:"hidden"`
	Deleted bool   `yaml:"deleted"`
}

type PostRecord struct {
	ID            uint            `yaml:"id"`
	UID           string          `yaml:"uid"`
	Title         string          `yaml:"title"`
	Body          string          `yaml:"body"`
	Tags          []uint          `yaml:"tags"`
	Authors       []uint          `yaml:"authors"`
	Draft         bool            `yaml:"draft"`
	AllowComments bool            `yaml:"allow_comments"`
	Date          string          `yaml:"date"`
	EditDate      string          `yaml:"edit_date"`
	Files         []string        `yaml:"files"`
	Comments      []CommentRecord `yaml:"comments"`
}

type PageRecord struct {
	ID       uint     `yaml:"id"`
	UID      string   `yaml:"uid"`
	Title    string   `yaml:"title"`
	Body     string   `yaml:"body"`
	EditDate string   `yaml:"edit_date"`
	Files    []string `yaml:"files"`
}

func marshal(v any) ([]byte, error) {
	return yaml.MarshalWithOptions(v,
		yaml.Indent(4),
		yaml.IndentSequence(true),
		yaml.UseLiteralStyleIfMultiline(true),
	)
}

func unmarshal(name string, data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedArchive, name, err)
	}
	return nil
}

// text normalises line endings so multi-line strings stay literal blocks.
func text(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(name, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: bad timestamp %q", ErrMalformedArchive, name, s)
	}
	return t.UTC(), nil
}

func tagRecord(t models.Tag) TagRecord {
	return TagRecord{ID: t.ID, Name: t.Name, UID: t.UID}
}

func (r TagRecord) model() models.Tag {
	return models.Tag{ID: r.ID, Name: r.Name, UID: r.UID}
}

func userRecord(u models.User) UserRecord {
	return UserRecord{
		ID:          u.ID,
		Name:        u.Name,
		OAuth2ID:    u.IdentityKey,
		Level:       int(u.Level),
		Username:    u.Username,
		Email:       u.Email,
		PictureURL:  u.PictureURL,
		Bio:         text(u.Bio),
		Blocked:     u.Blocked,
		HideContent: u.HideContent,
		HidePicture: u.HidePicture,
	}
}

func (r UserRecord) model() (models.User, error) {
	level := models.AccessLevel(r.Level)
	if !level.Valid() {
		return models.User{}, fmt.Errorf("%w: user %d has level %d", ErrMalformedArchive, r.ID, r.Level)
	}
	return models.User{
		ID:          r.ID,
		Name:        r.Name,
		IdentityKey: r.OAuth2ID,
		Level:       level,
		Username:    r.Username,
		Email:       r.Email,
		PictureURL:  r.PictureURL,
		Bio:         r.Bio,
		Blocked:     r.Blocked,
		HideContent: r.HideContent,
		HidePicture: r.HidePicture,
	}, nil
}

func postRecord(p models.Post) PostRecord {
	r := PostRecord{
		ID:            p.ID,
		UID:           p.UID,
		Title:         p.Title,
		Body:          text(p.Body),
		Tags:          []uint{},
		Authors:       []uint{},
		Draft:         p.Draft,
		AllowComments: p.AllowComments,
		Date:          formatTime(p.Date),
		EditDate:      formatTime(p.EditDate),
		Files:         fileNames(p.Files),
		Comments:      []CommentRecord{},
	}
	for _, t := range p.Tags {
		r.Tags = append(r.Tags, t.ID)
	}
	for _, a := range p.Authors {
		r.Authors = append(r.Authors, a.ID)
	}
	for _, c := range p.Comments {
		r.Comments = append(r.Comments, CommentRecord{
			ID:      c.ID,
			Author:  c.AuthorID,
			Body:    text(c.Body),
			Date:    formatTime(c.Date),
			Hidden:  c.Hidden,
			Deleted: c.Deleted,
		})
	}
	return r
}

func pageRecord(p models.Page) PageRecord {
	return PageRecord{
		ID:       p.ID,
		UID:      p.UID,
		Title:    p.Title,
		Body:     text(p.Body),
		EditDate: formatTime(p.EditDate),
		Files:    fileNames(p.Files),
	}
}

func fileNames(files []models.File) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}
