package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/oauth"
	"inkwell/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInRegistersVisitor(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "")

	u, err := accounts.SignIn(ctx, "github", &oauth.Profile{ID: "42", Name: "Ada Lovelace", PictureURL: "a.png"},
		func(context.Context) (string, error) { return "ada@example.com", nil })
	require.NoError(t, err)

	assert.Equal(t, "42@github", u.IdentityKey)
	assert.Equal(t, "ada.lovelace", u.Username)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, models.LevelVisitor, u.Level)
}

func TestSignInUsernameCollision(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	newUser(t, st, "ada", models.LevelVisitor)
	newUser(t, st, "ada0", models.LevelVisitor)
	accounts := NewAccounts(st, oauth.Providers{}, "")

	u, err := accounts.SignIn(ctx, "google", &oauth.Profile{ID: "g-1", Name: "Ada", Email: "x@example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ada1", u.Username)
}

func TestSignInExistingRefreshesAvatarOnly(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "")

	first, err := accounts.SignIn(ctx, "google", &oauth.Profile{ID: "7", Name: "Grace", Email: "g@example.com", PictureURL: "old.png"}, nil)
	require.NoError(t, err)

	lookups := 0
	again, err := accounts.SignIn(ctx, "google", &oauth.Profile{ID: "7", Name: "Renamed", Email: "new@example.com", PictureURL: "new.png"},
		func(context.Context) (string, error) { lookups++; return "", nil })
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "grace", again.Username)
	assert.Equal(t, "Grace", again.Name)
	assert.Equal(t, "g@example.com", again.Email)
	assert.Equal(t, "new.png", again.PictureURL)
	assert.Zero(t, lookups)
}

func TestSignInSurvivesEmailLookupFailure(t *testing.T) {
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "")

	u, err := accounts.SignIn(context.Background(), "github", &oauth.Profile{ID: "9", Name: "No Mail"},
		func(context.Context) (string, error) { return "", errors.New("down") })
	require.NoError(t, err)
	assert.Empty(t, u.Email)
}

func TestElevate(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "s3cret")
	alice := newUser(t, st, "alice", models.LevelVisitor)
	bob := newUser(t, st, "bob", models.LevelVisitor)

	assert.ErrorIs(t, accounts.Elevate(ctx, alice, "wrong"), ErrWrongSecret)

	require.NoError(t, accounts.Elevate(ctx, alice, "s3cret"))
	assert.Equal(t, models.LevelOwner, alice.Level)
	stored, err := st.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelOwner, stored.Level)

	assert.ErrorIs(t, accounts.Elevate(ctx, bob, "s3cret"), ErrOwnerExists)
	stored, err = st.Users().FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelVisitor, stored.Level)
}

func TestElevateDisabledWithoutSecret(t *testing.T) {
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "")
	alice := newUser(t, st, "alice", models.LevelVisitor)
	assert.ErrorIs(t, accounts.Elevate(context.Background(), alice, ""), ErrWrongSecret)
}

func TestUpdateAccess(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "")
	owner := newUser(t, st, "owner", models.LevelOwner)
	collab := newUser(t, st, "collab", models.LevelCollaborator)
	target := newUser(t, st, "target", models.LevelVisitor)

	_, err := accounts.UpdateAccess(ctx, collab, target.ID, models.LevelCollaborator, false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = accounts.UpdateAccess(ctx, owner, target.ID, models.AccessLevel(7), false)
	assert.ErrorIs(t, err, ErrInvalidLevel)

	u, err := accounts.UpdateAccess(ctx, owner, target.ID, models.LevelCollaborator, true)
	require.NoError(t, err)
	assert.True(t, u.Blocked)

	stored, err := st.Users().FindByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelCollaborator, stored.Level)
	assert.True(t, stored.Blocked)

	users, err := accounts.Users(ctx, owner)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "target", users[0].Username)
}

func TestUpdateAccessKeepsAnOwner(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "s3cret")
	alice := newUser(t, st, "alice", models.LevelVisitor)
	bob := newUser(t, st, "bob", models.LevelVisitor)
	require.NoError(t, accounts.Elevate(ctx, alice, "s3cret"))

	_, err := accounts.UpdateAccess(ctx, alice, alice.ID, models.LevelVisitor, false)
	assert.ErrorIs(t, err, ErrLastOwner)
	assert.ErrorIs(t, accounts.Elevate(ctx, bob, "s3cret"), ErrOwnerExists)

	// blocking the only owner keeps the level
	_, err = accounts.UpdateAccess(ctx, alice, alice.ID, models.LevelOwner, true)
	require.NoError(t, err)

	_, err = accounts.UpdateAccess(ctx, alice, bob.ID, models.LevelOwner, false)
	require.NoError(t, err)
	_, err = accounts.UpdateAccess(ctx, alice, alice.ID, models.LevelCollaborator, false)
	require.NoError(t, err)

	owners, err := st.Users().CountByLevel(ctx, models.LevelOwner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, owners)
}

func TestSignInLooksUpEmailBeforeTransaction(t *testing.T) {
	ctx := context.Background()
	st := storetest.New(t)
	accounts := NewAccounts(st, oauth.Providers{}, "")

	// the test database has a single connection, so a query from the lookup
	// would time out while a transaction holds it
	var queryErr error
	u, err := accounts.SignIn(ctx, "github", &oauth.Profile{ID: "5", Name: "Linus"},
		func(ctx context.Context) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			_, queryErr = st.Users().CountByLevel(ctx, models.LevelOwner)
			return "linus@example.com", nil
		})
	require.NoError(t, err)
	assert.NoError(t, queryErr)
	assert.Equal(t, "linus@example.com", u.Email)
}

func TestProvider(t *testing.T) {
	accounts := NewAccounts(storetest.New(t), oauth.Providers{"github": &oauth.Provider{Name: "github"}}, "")
	p, err := accounts.Provider("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name)

	_, err = accounts.Provider("myspace")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
