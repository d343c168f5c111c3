// Package store holds one explicit repository per entity on top of gorm.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

// joinTables are the many-to-many link tables created by gorm for posts and pages.
var joinTables = []string{"post_tags", "post_authors", "post_files", "post_comments", "page_files"}

// entityTables are the tables whose primary keys are preserved by a restore.
var entityTables = []string{"users", "tags", "comments", "files", "posts", "pages"}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() *Users       { return &Users{db: s.db} }
func (s *Store) Tags() *Tags         { return &Tags{db: s.db} }
func (s *Store) Posts() *Posts       { return &Posts{db: s.db} }
func (s *Store) Pages() *Pages       { return &Pages{db: s.db} }
func (s *Store) Comments() *Comments { return &Comments{db: s.db} }

// Transaction runs fn against a Store bound to a single database transaction.
// fn must only use the Store it is given.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Snapshot runs fn in a read-only transaction whose statements all see the same
// committed state. Postgres needs REPEATABLE READ for that; a sqlite transaction
// already reads from one snapshot.
func (s *Store) Snapshot(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	}, snapshotOptions(s.db.Dialector.Name())...)
}

func snapshotOptions(dialect string) []*sql.TxOptions {
	if dialect != "postgres" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
}

// Wipe deletes every page, post, tag, user, file and comment, link rows first.
func (s *Store) Wipe(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, table := range joinTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	all := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Page{}, &models.Post{}, &models.Tag{}, &models.Comment{}, &models.User{}, &models.File{}} {
		if err := all.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// ResyncSequences moves postgres id sequences past the highest stored id, which is
// needed after rows were inserted with explicit primary keys. Other dialects pick
// max(id)+1 on their own.
func (s *Store) ResyncSequences(ctx context.Context) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	db := s.db.WithContext(ctx)
	for _, table := range entityTables {
		q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)", table)
		if err := db.Exec(q).Error; err != nil {
			return fmt.Errorf("resync %s sequence: %w", table, err)
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// attachFiles stores new files and links them to owner through its Files association.
func attachFiles(db *gorm.DB, owner any, files []models.File) error {
	if len(files) == 0 {
		return nil
	}
	return db.Model(owner).Association("Files").Append(files)
}

// detachFile unlinks f from owner and deletes the file row. f may point into the
// owner's Files slice, which the association rewrites, so the id is read first.
func detachFile(db *gorm.DB, owner any, f *models.File) error {
	id := f.ID
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(owner).Association("Files").Delete(&models.File{ID: id}); err != nil {
			return err
		}
		return tx.Delete(&models.File{}, id).Error
	})
}

func fileIDs(files []models.File) []uint {
	ids := make([]uint, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func exists(db *gorm.DB, model any, column, value string) (bool, error) {
	var n int64
	if err := db.Model(model).Where(column+" = ?", value).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
