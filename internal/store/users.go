package store

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func (r *Users) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindByIdentity looks a user up by its <remote-id>@<provider> key.
func (r *Users) FindByIdentity(ctx context.Context, key string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("identity_key = ?", key).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// FindByIDs returns the users that exist among ids, ordered by id.
func (r *Users) FindByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

// All returns every user ordered by id.
func (r *Users) All(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// Newest returns every user, most recently created first.
func (r *Users) Newest(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Order("id DESC").Find(&users).Error
	return users, err
}

func (r *Users) CountByLevel(ctx context.Context, level models.AccessLevel) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("level = ?", level).Count(&n).Error
	return n, err
}

func (r *Users) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.User{}, "username", username)
}

// Create inserts u, keeping u.ID when it is already set.
func (r *Users) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Users) Save(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// SetSessionToken overwrites the stored token without touching other columns.
func (r *Users) SetSessionToken(ctx context.Context, id uint, token string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("session_token", token).Error
}

// UpdateAccess writes the level and blocked columns only.
func (r *Users) UpdateAccess(ctx context.Context, id uint, level models.AccessLevel, blocked bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"level": level, "blocked": blocked}).Error
}
