package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *store.Store, username string, level models.AccessLevel) *models.User {
	t.Helper()
	u := &models.User{Username: username, Name: username, Level: level}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func seedPost(t *testing.T, s *store.Store, uid string, date time.Time, draft bool, author *models.User, tags ...models.Tag) *models.Post {
	t.Helper()
	p := &models.Post{UID: uid, Title: uid, Body: "<p>" + uid + "</p>", Draft: draft, Date: date, EditDate: date}
	if author != nil {
		p.Authors = []models.User{*author}
	}
	p.Tags = tags
	require.NoError(t, s.Posts().Create(context.Background(), p))
	return p
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	alice := seedUser(t, s, "alice", models.LevelOwner)
	seedUser(t, s, "bob", models.LevelVisitor)

	got, err := s.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = s.Users().FindByUsername(ctx, "carol")
	assert.ErrorIs(t, err, store.ErrNotFound)

	taken, err := s.Users().UsernameTaken(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, taken)

	owners, err := s.Users().CountByLevel(ctx, models.LevelOwner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, owners)

	require.NoError(t, s.Users().SetSessionToken(ctx, alice.ID, "0123456789abcdef0123456789abcdef"))
	got, err = s.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", got.SessionToken)
	assert.Equal(t, "alice", got.Username)

	newest, err := s.Users().Newest(ctx)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "bob", newest[0].Username)
}

func TestListPublished(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	alice := seedUser(t, s, "alice", models.LevelOwner)
	bob := seedUser(t, s, "bob", models.LevelCollaborator)
	golang := models.Tag{Name: "Go", UID: "go"}
	require.NoError(t, s.Tags().Create(ctx, &golang))

	seedPost(t, s, "first", base, false, alice, golang)
	seedPost(t, s, "second", base.Add(24*time.Hour), false, bob)
	seedPost(t, s, "third", base.Add(48*time.Hour), false, alice, golang)
	seedPost(t, s, "hidden", base.Add(72*time.Hour), true, alice, golang)

	posts, total, err := s.Posts().ListPublished(ctx, store.PostFilter{}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "third", posts[0].UID)
	assert.Equal(t, "second", posts[1].UID)
	assert.Len(t, posts[0].Tags, 1)
	assert.Len(t, posts[0].Authors, 1)

	posts, total, err = s.Posts().ListPublished(ctx, store.PostFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "first", posts[0].UID)

	posts, total, err = s.Posts().ListPublished(ctx, store.PostFilter{AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, posts, 2)

	posts, _, err = s.Posts().ListPublished(ctx, store.PostFilter{TagID: golang.ID, AuthorID: bob.ID}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFindByPath(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	date := time.Date(2023, 11, 5, 9, 30, 0, 0, time.UTC)
	seedPost(t, s, "hello-world", date, false, nil)

	p, err := s.Posts().FindByPath(ctx, 2023, 11, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "/2023/11/hello-world/", p.Path())

	_, err = s.Posts().FindByPath(ctx, 2023, 12, "hello-world")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Posts().FindByPath(ctx, 2022, 11, "hello-world")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostFilesAndDelete(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	alice := seedUser(t, s, "alice", models.LevelOwner)
	p := seedPost(t, s, "with-files", time.Now().UTC(), false, alice)

	require.NoError(t, s.Posts().AttachFiles(ctx, p, []models.File{
		{Name: "a.txt", Content: []byte("A")},
		{Name: "b.png", Content: []byte{0x89, 0x50}},
	}))
	c := &models.Comment{AuthorID: &alice.ID, Body: "nice", Date: time.Now().UTC()}
	require.NoError(t, s.Posts().AddComment(ctx, p, c))

	loaded, err := s.Posts().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Files, 2)
	require.Len(t, loaded.Comments, 1)
	require.NotNil(t, loaded.Comments[0].Author)
	assert.Equal(t, "alice", loaded.Comments[0].Author.Username)
	assert.Equal(t, []byte("A"), loaded.FileNamed("a.txt").Content)

	postID, err := s.Comments().PostID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, postID)

	require.NoError(t, s.Posts().DeleteFile(ctx, loaded, loaded.FileNamed("a.txt")))
	loaded, err = s.Posts().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Files, 1)
	assert.Equal(t, "b.png", loaded.Files[0].Name)

	require.NoError(t, s.Posts().Delete(ctx, loaded))
	_, err = s.Posts().FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Comments().FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// the author survives the post
	_, err = s.Users().FindByID(ctx, alice.ID)
	assert.NoError(t, err)
}

func TestReplaceTags(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	a := models.Tag{Name: "A", UID: "a"}
	b := models.Tag{Name: "B", UID: "b"}
	require.NoError(t, s.Tags().Create(ctx, &a))
	require.NoError(t, s.Tags().Create(ctx, &b))
	p := seedPost(t, s, "tagged", time.Now().UTC(), false, nil, a)

	require.NoError(t, s.Posts().ReplaceTags(ctx, p, []models.Tag{b}))
	loaded, err := s.Posts().FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "b", loaded.Tags[0].UID)

	require.NoError(t, s.Posts().ReplaceTags(ctx, loaded, nil))
	loaded, err = s.Posts().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Tags)
}

func TestPages(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	page := &models.Page{UID: "about", Title: "About", Body: "<p>me</p>", EditDate: time.Now().UTC(),
		Files: []models.File{{Name: "cv.pdf", Content: []byte("%PDF")}}}
	require.NoError(t, s.Pages().Create(ctx, page))

	got, err := s.Pages().FindByUID(ctx, "about")
	require.NoError(t, err)
	require.Len(t, got.Files, 1)

	require.NoError(t, s.Pages().Delete(ctx, got))
	_, err = s.Pages().FindByUID(ctx, "about")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	seedUser(t, s, "alice", models.LevelOwner)

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Wipe(ctx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().FindByUsername(ctx, "alice")
	assert.NoError(t, err)
}

func TestIdentityKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	seedUser(t, s, "alice", models.LevelVisitor)
	seedUser(t, s, "bob", models.LevelVisitor)

	require.NoError(t, s.Users().Create(ctx, &models.User{Username: "ada", IdentityKey: "7@github", Level: models.LevelVisitor}))
	err := s.Users().Create(ctx, &models.User{Username: "ada2", IdentityKey: "7@github", Level: models.LevelVisitor})
	assert.Error(t, err)
	require.NoError(t, s.Users().Create(ctx, &models.User{Username: "ada3", IdentityKey: "7@google", Level: models.LevelVisitor}))
}

func TestSnapshotReadsCommittedRows(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	seedUser(t, s, "alice", models.LevelOwner)

	var users []models.User
	err := s.Snapshot(ctx, func(tx *store.Store) error {
		var err error
		users, err = tx.Users().All(ctx)
		return err
	})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	alice := seedUser(t, s, "alice", models.LevelOwner)
	tag := models.Tag{Name: "A", UID: "a"}
	require.NoError(t, s.Tags().Create(ctx, &tag))
	seedPost(t, s, "p", time.Now().UTC(), false, alice, tag)

	require.NoError(t, s.Wipe(ctx))
	require.NoError(t, s.ResyncSequences(ctx))

	users, err := s.Users().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	posts, err := s.Posts().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
	tags, err := s.Tags().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
