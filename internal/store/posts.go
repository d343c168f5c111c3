package store

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Posts struct {
	db *gorm.DB
}

// PostFilter narrows a listing of published posts. Zero fields match everything.
type PostFilter struct {
	AuthorID uint
	TagID    uint
}

// full preloads everything a post view or an archive record needs.
func (r *Posts) full(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Tags", orderByID).
		Preload("Authors", orderByID).
		Preload("Files", orderByID).
		Preload("Comments", orderByID).
		Preload("Comments.Author")
}

func (r *Posts) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := r.full(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *Posts) FindByUID(ctx context.Context, uid string) (*models.Post, error) {
	var p models.Post
	if err := r.full(ctx).Where("uid = ?", uid).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindByPath resolves /<year>/<month>/<uid>/. The year and month must match the post date.
func (r *Posts) FindByPath(ctx context.Context, year, month int, uid string) (*models.Post, error) {
	p, err := r.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p.Date.Year() != year || int(p.Date.Month()) != month {
		return nil, ErrNotFound
	}
	return p, nil
}

func (r *Posts) published(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.draft = ?", false)
	if f.AuthorID != 0 {
		q = q.Joins("JOIN post_authors ON post_authors.post_id = posts.id").
			Where("post_authors.user_id = ?", f.AuthorID)
	}
	if f.TagID != 0 {
		q = q.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
			Where("post_tags.tag_id = ?", f.TagID)
	}
	return q
}

// ListPublished returns one page of published posts, newest first, and the total
// number of matching posts.
func (r *Posts) ListPublished(ctx context.Context, f PostFilter, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.published(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := r.published(ctx, f).
		Preload("Tags", orderByID).
		Preload("Authors", orderByID).
		Order("posts.date DESC").Order("posts.id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

// All returns every post, drafts included, fully loaded and ordered by id.
func (r *Posts) All(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.full(ctx).Order("id ASC").Find(&posts).Error
	return posts, err
}

// Newest returns every post, drafts included, by date descending.
func (r *Posts) Newest(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Authors", orderByID).
		Order("date DESC").Order("id DESC").
		Find(&posts).Error
	return posts, err
}

func (r *Posts) UIDTaken(ctx context.Context, uid string) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Post{}, "uid", uid)
}

// Create inserts p together with its links. Tags and authors must already exist;
// files and comments are inserted, comments keeping their ids when set.
func (r *Posts) Create(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Save writes the scalar columns of p, leaving its links untouched.
func (r *Posts) Save(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *Posts) ReplaceTags(ctx context.Context, p *models.Post, tags []models.Tag) error {
	if len(tags) == 0 {
		return r.db.WithContext(ctx).Model(p).Association("Tags").Clear()
	}
	return r.db.WithContext(ctx).Model(p).Association("Tags").Replace(tags)
}

func (r *Posts) AddAuthor(ctx context.Context, p *models.Post, u *models.User) error {
	return r.db.WithContext(ctx).Model(p).Association("Authors").Append(u)
}

func (r *Posts) AddComment(ctx context.Context, p *models.Post, c *models.Comment) error {
	return r.db.WithContext(ctx).Model(p).Association("Comments").Append(c)
}

func (r *Posts) AttachFiles(ctx context.Context, p *models.Post, files []models.File) error {
	return attachFiles(r.db.WithContext(ctx), p, files)
}

func (r *Posts) DeleteFile(ctx context.Context, p *models.Post, f *models.File) error {
	return detachFile(r.db.WithContext(ctx), p, f)
}

// Delete removes a loaded post with its files, its comments and every link row.
func (r *Posts) Delete(ctx context.Context, p *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := make([]uint, 0, len(p.Comments))
		for _, c := range p.Comments {
			commentIDs = append(commentIDs, c.ID)
		}
		if err := tx.Select(clause.Associations).Delete(p).Error; err != nil {
			return err
		}
		if ids := fileIDs(p.Files); len(ids) > 0 {
			if err := tx.Delete(&models.File{}, ids).Error; err != nil {
				return err
			}
		}
		if len(commentIDs) > 0 {
			if err := tx.Delete(&models.Comment{}, commentIDs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
