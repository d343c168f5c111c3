package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/models"
	"inkwell/internal/oauth"
	"inkwell/internal/store"
	"inkwell/internal/utils"
)

// EmailLookup fetches a fallback address for a new user whose profile has none.
type EmailLookup func(ctx context.Context) (string, error)

// Accounts covers sign-in through an identity provider, one-time elevation and
// user administration.
type Accounts struct {
	store     *store.Store
	providers oauth.Providers
	secret    string
}

// NewAccounts returns the account service. An empty elevationSecret disables elevation.
func NewAccounts(st *store.Store, providers oauth.Providers, elevationSecret string) *Accounts {
	return &Accounts{store: st, providers: providers, secret: elevationSecret}
}

func (a *Accounts) Provider(name string) (*oauth.Provider, error) {
	p, ok := a.providers.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

func (a *Accounts) ProviderNames() []string {
	return a.providers.Names()
}

// SignIn finds the user behind <profile.ID>@<provider> or registers a new visitor.
// A returning user only gets the avatar refreshed.
func (a *Accounts) SignIn(ctx context.Context, provider string, profile *oauth.Profile, lookupEmail EmailLookup) (*models.User, error) {
	key := profile.ID + "@" + provider

	// The provider email call happens before the transaction opens.
	email := profile.Email
	if email == "" && lookupEmail != nil {
		if _, err := a.store.Users().FindByIdentity(ctx, key); errors.Is(err, store.ErrNotFound) {
			email, err = lookupEmail(ctx)
			if err != nil {
				slog.Warn("email lookup failed", "provider", provider, "error", err)
			}
		}
	}

	var user *models.User
	err := a.store.Transaction(ctx, func(tx *store.Store) error {
		existing, err := tx.Users().FindByIdentity(ctx, key)
		if err == nil {
			existing.PictureURL = profile.PictureURL
			user = existing
			return tx.Users().Save(ctx, existing)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		u := models.NewVisitor()
		u.IdentityKey = key
		u.Name = profile.Name
		u.Email = email
		u.PictureURL = profile.PictureURL

		u.Username, err = utils.UniqueSlug(utils.PrettyTitle(u.Name, "."), func(s string) (bool, error) {
			return tx.Users().UsernameTaken(ctx, s)
		})
		if err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		slog.Info("registered new user", "username", u.Username, "provider", provider)
		user = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign in %s: %w", key, err)
	}
	return user, nil
}

// Elevate makes u the Owner when secret matches and no Owner exists yet.
func (a *Accounts) Elevate(ctx context.Context, u *models.User, secret string) error {
	if a.secret == "" || subtle.ConstantTimeCompare([]byte(a.secret), []byte(secret)) != 1 {
		return ErrWrongSecret
	}
	return a.store.Transaction(ctx, func(tx *store.Store) error {
		owners, err := tx.Users().CountByLevel(ctx, models.LevelOwner)
		if err != nil {
			return err
		}
		if owners > 0 {
			return ErrOwnerExists
		}
		if err := tx.Users().UpdateAccess(ctx, u.ID, models.LevelOwner, u.Blocked); err != nil {
			return err
		}
		u.Level = models.LevelOwner
		slog.Info("user elevated to owner", "username", u.Username)
		return nil
	})
}

// Users lists every account, newest first.
func (a *Accounts) Users(ctx context.Context, actor *models.User) ([]models.User, error) {
	if !actor.Can(models.UserWrite) {
		return nil, ErrForbidden
	}
	return a.store.Users().Newest(ctx)
}

// UpdateAccess sets the level and blocked flag of the user with the given id.
func (a *Accounts) UpdateAccess(ctx context.Context, actor *models.User, id uint, level models.AccessLevel, blocked bool) (*models.User, error) {
	if !actor.Can(models.UserWrite) {
		return nil, ErrForbidden
	}
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}

	var updated *models.User
	err := a.store.Transaction(ctx, func(tx *store.Store) error {
		u, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Level == models.LevelOwner && level != models.LevelOwner {
			owners, err := tx.Users().CountByLevel(ctx, models.LevelOwner)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return ErrLastOwner
			}
		}
		if err := tx.Users().UpdateAccess(ctx, u.ID, level, blocked); err != nil {
			return err
		}
		u.Level, u.Blocked = level, blocked
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Author looks a user up for the public author page.
func (a *Accounts) Author(ctx context.Context, username string) (*models.User, error) {
	return a.store.Users().FindByUsername(ctx, username)
}
