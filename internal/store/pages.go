package store

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Pages struct {
	db *gorm.DB
}

func (r *Pages) withFiles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Files", orderByID)
}

func (r *Pages) FindByID(ctx context.Context, id uint) (*models.Page, error) {
	var p models.Page
	if err := r.withFiles(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *Pages) FindByUID(ctx context.Context, uid string) (*models.Page, error) {
	var p models.Page
	if err := r.withFiles(ctx).Where("uid = ?", uid).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// All returns every page with its files, ordered by id.
func (r *Pages) All(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	err := r.withFiles(ctx).Order("id ASC").Find(&pages).Error
	return pages, err
}

// Newest returns every page without file contents, highest id first.
func (r *Pages) Newest(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.WithContext(ctx).Order("id DESC").Find(&pages).Error
	return pages, err
}

func (r *Pages) UIDTaken(ctx context.Context, uid string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Page{}, "uid", uid)
}

// Create inserts p and its files.
func (r *Pages) Create(ctx context.Context, p *models.Page) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Pages) Save(ctx context.Context, p *models.Page) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *Pages) AttachFiles(ctx context.Context, p *models.Page, files []models.File) error {
	return attachFiles(r.db.WithContext(ctx), p, files)
}

func (r *Pages) DeleteFile(ctx context.Context, p *models.Page, f *models.File) error {
	return detachFile(r.db.WithContext(ctx), p, f)
}

// Delete removes a loaded page and its files.
func (r *Pages) Delete(ctx context.Context, p *models.Page) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select(clause.Associations).Delete(p).Error; err != nil {
			return err
		}
		if ids := fileIDs(p.Files); len(ids) > 0 {
			return tx.Delete(&models.File{}, ids).Error
		}
		return nil
	})
}
