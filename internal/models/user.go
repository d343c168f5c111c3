package models

// AccessLevel values are persisted and exported as integers, so their order is fixed.
type AccessLevel int

const (
	LevelOwner        AccessLevel = 0
	LevelCollaborator AccessLevel = 1
	LevelVisitor      AccessLevel = 2
)

func (l AccessLevel) String() string {
	switch l {
	case LevelOwner:
		return "owner"
	case LevelCollaborator:
		return "collaborator"
	case LevelVisitor:
		return "visitor"
	}
	return "unknown"
}

// Valid reports whether l is one of the known levels.
func (l AccessLevel) Valid() bool {
	return l == LevelOwner || l == LevelCollaborator || l == LevelVisitor
}

// Capability names a write action gated by access level.
type Capability string

const (
	PageWrite     Capability = "PAGE_WRITE"
	UserWrite     Capability = "USER_WRITE"
	PostWrite     Capability = "POST_WRITE"
	CommentDelete Capability = "COMMENT_DELETE"
	CommentWrite  Capability = "COMMENT_WRITE"
	Backup        Capability = "BACKUP"
)

type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Name         string      `gorm:"size:50" json:"name"`
	IdentityKey  string      `gorm:"size:100;uniqueIndex:idx_users_identity_key,where:identity_key <> ''" json:"oauth2_id"` // <remote-id>@<provider>, unique when set
	SessionToken string      `gorm:"size:32" json:"-"`
	Level        AccessLevel `gorm:"not null" json:"level"`
	Username     string      `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string      `gorm:"size:100" json:"email"`
	PictureURL   string      `gorm:"size:255" json:"picture_url"`
	Bio          string      `gorm:"type:text" json:"bio"`
	Blocked      bool        `gorm:"not null" json:"blocked"`
	HideContent  bool        `gorm:"not null" json:"hide_content"`
	HidePicture  bool        `gorm:"not null" json:"hide_picture"`
}

// NewVisitor returns an unsaved user at the default access level.
func NewVisitor() *User {
	return &User{Level: LevelVisitor}
}

// Can reports whether the user holds capability c. A nil user holds nothing.
func (u *User) Can(c Capability) bool {
	if u == nil {
		return false
	}
	switch c {
	case PageWrite, UserWrite, Backup:
		return u.Level == LevelOwner
	case PostWrite, CommentDelete:
		return u.Level == LevelOwner || u.Level == LevelCollaborator
	case CommentWrite:
		return u.Level.Valid() && !u.Blocked
	}
	return false
}

// IsOwner is a template helper.
func (u *User) IsOwner() bool {
	return u != nil && u.Level == LevelOwner
}
