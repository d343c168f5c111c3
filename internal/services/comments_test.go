package services

import (
	"context"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupComments(t *testing.T, allow bool) (*Comments, *store.Store, *models.Post) {
	t.Helper()
	st := storetest.New(t)
	owner := newUser(t, st, "owner", models.LevelOwner)
	content := NewContent(st, 10)
	content.Now = clock
	p, err := content.SavePost(context.Background(), owner, 0, PostForm{Title: "Open", AllowComments: allow})
	require.NoError(t, err)

	c := NewComments(st)
	c.Now = clock
	return c, st, p
}

func TestSubmitSanitizes(t *testing.T) {
	ctx := context.Background()
	c, st, p := setupComments(t, true)
	visitor := newUser(t, st, "vis", models.LevelVisitor)

	_, comment, err := c.Submit(ctx, visitor, p.ID, `<b>hi</b><script>x()</script> <a href="https://e.org" onclick="y()">e</a>`)
	require.NoError(t, err)
	assert.Equal(t, `<b>hi</b> <a href="https://e.org">e</a>`, comment.Body)

	post, err := c.PostOf(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, post.ID)
	require.Len(t, post.Comments, 1)
	assert.True(t, post.Comments[0].WrittenBy(visitor))
}

func TestSubmitRules(t *testing.T) {
	ctx := context.Background()
	c, st, p := setupComments(t, false)
	visitor := newUser(t, st, "vis", models.LevelVisitor)
	blocked := &models.User{Username: "blk", Level: models.LevelVisitor, Blocked: true}
	require.NoError(t, st.Users().Create(ctx, blocked))

	_, _, err := c.Submit(ctx, visitor, p.ID, "hi")
	assert.ErrorIs(t, err, ErrCommentsClosed)

	_, _, err = c.Submit(ctx, blocked, p.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = c.Submit(ctx, nil, p.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = c.Submit(ctx, visitor, p.ID+100, "hi")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestToggleDelete(t *testing.T) {
	ctx := context.Background()
	c, st, p := setupComments(t, true)
	author := newUser(t, st, "author", models.LevelVisitor)
	other := newUser(t, st, "other", models.LevelVisitor)
	moderator := newUser(t, st, "mod", models.LevelCollaborator)

	_, comment, err := c.Submit(ctx, author, p.ID, "hello")
	require.NoError(t, err)

	_, err = c.ToggleDelete(ctx, other, comment.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	toggled, err := c.ToggleDelete(ctx, author, comment.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Deleted)

	toggled, err = c.ToggleDelete(ctx, moderator, comment.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Deleted)

	stored, err := st.Comments().FindByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.False(t, stored.Deleted)

	author.Blocked = true
	_, err = c.ToggleDelete(ctx, author, comment.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
