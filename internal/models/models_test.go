package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityMatrix(t *testing.T) {
	owner := &User{Level: LevelOwner}
	collaborator := &User{Level: LevelCollaborator}
	visitor := &User{Level: LevelVisitor}
	blocked := &User{Level: LevelVisitor, Blocked: true}

	tests := []struct {
		name string
		user *User
		want map[Capability]bool
	}{
		{"owner", owner, map[Capability]bool{PageWrite: true, UserWrite: true, PostWrite: true, CommentWrite: true, CommentDelete: true, Backup: true}},
		{"collaborator", collaborator, map[Capability]bool{PageWrite: false, UserWrite: false, PostWrite: true, CommentWrite: true, CommentDelete: true, Backup: false}},
		{"visitor", visitor, map[Capability]bool{PageWrite: false, UserWrite: false, PostWrite: false, CommentWrite: true, CommentDelete: false, Backup: false}},
		{"blocked visitor", blocked, map[Capability]bool{PageWrite: false, UserWrite: false, PostWrite: false, CommentWrite: false, CommentDelete: false, Backup: false}},
		{"anonymous", nil, map[Capability]bool{PageWrite: false, UserWrite: false, PostWrite: false, CommentWrite: false, CommentDelete: false, Backup: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for capability, want := range tt.want {
				assert.Equal(t, want, tt.user.Can(capability), string(capability))
			}
		})
	}
}

func TestBlockedOwnerKeepsWriteAccess(t *testing.T) {
	u := &User{Level: LevelOwner, Blocked: true}

	assert.True(t, u.Can(PostWrite))
	assert.False(t, u.Can(CommentWrite))
}

func TestPostPath(t *testing.T) {
	p := &Post{UID: "hello-world", Date: time.Date(2017, time.March, 5, 10, 0, 0, 0, time.UTC)}

	assert.Equal(t, "/2017/03/hello-world/", p.Path())
}

func TestFileNamed(t *testing.T) {
	p := &Page{UID: "about", Files: []File{{ID: 1, Name: "a.png"}, {ID: 2, Name: "b.txt"}}}

	f := p.FileNamed("b.txt")
	if assert.NotNil(t, f) {
		assert.Equal(t, uint(2), f.ID)
	}
	assert.Nil(t, p.FileNamed("missing"))
	assert.Equal(t, "/page/about/", p.Path())
}

func TestCommentWrittenBy(t *testing.T) {
	id := uint(7)
	c := &Comment{AuthorID: &id}

	assert.True(t, c.WrittenBy(&User{ID: 7}))
	assert.False(t, c.WrittenBy(&User{ID: 8}))
	assert.False(t, c.WrittenBy(nil))
	assert.False(t, (&Comment{}).WrittenBy(&User{ID: 7}))
}

func TestCommentTogglableBy(t *testing.T) {
	id := uint(7)
	c := &Comment{AuthorID: &id}

	assert.True(t, c.TogglableBy(&User{ID: 7, Level: LevelVisitor}))
	assert.False(t, c.TogglableBy(&User{ID: 7, Level: LevelVisitor, Blocked: true}))
	assert.False(t, c.TogglableBy(&User{ID: 8, Level: LevelVisitor}))
	assert.True(t, c.TogglableBy(&User{ID: 8, Level: LevelCollaborator}))
	assert.False(t, c.TogglableBy(nil))
}
