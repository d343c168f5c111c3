package store

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

type Tags struct {
	db *gorm.DB
}

func (r *Tags) FindByUID(ctx context.Context, uid string) (*models.Tag, error) {
	var t models.Tag
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *Tags) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *Tags) FindByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&tags).Error
	return tags, err
}

func (r *Tags) All(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Order("id ASC").Find(&tags).Error
	return tags, err
}

func (r *Tags) UIDTaken(ctx context.Context, uid string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Tag{}, "uid", uid)
}

func (r *Tags) Create(ctx context.Context, t *models.Tag) error {
	return r.db.WithContext(ctx).Create(t).Error
}
