package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

var (
	ErrForbidden    = errors.New("backup requires the owner")
	ErrSinkDisabled = errors.New("no object storage configured")
)

// Service gates archive operations behind the BACKUP capability.
type Service struct {
	store *store.Store
	sink  Sink

	Now func() time.Time
}

// NewService returns the backup service. sink may be nil.
func NewService(st *store.Store, sink Sink) *Service {
	return &Service{store: st, sink: sink, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) SinkEnabled() bool {
	return s.sink != nil
}

// FileName is the download name of an archive taken now.
func (s *Service) FileName() string {
	return "backup-" + s.Now().Format("20060102-150405") + ".zip"
}

func (s *Service) Export(ctx context.Context, actor *models.User, w io.Writer) error {
	if !actor.Can(models.Backup) {
		return ErrForbidden
	}
	return Export(ctx, s.store, w)
}

func (s *Service) Restore(ctx context.Context, actor *models.User, r io.ReaderAt, size int64) (*Summary, error) {
	if !actor.Can(models.Backup) {
		return nil, ErrForbidden
	}
	sum, err := Restore(ctx, s.store, r, size)
	if err != nil {
		slog.Warn("restore failed", "user", actor.Username, "error", err)
		return nil, err
	}
	slog.Info("restore completed", "user", actor.Username,
		"posts", sum.Posts, "pages", sum.Pages, "users", sum.Users, "files", sum.Files)
	return sum, nil
}

// Survivor returns the restored account that matches actor by id and username,
// or nil when the actor is not part of the restored data.
func (s *Service) Survivor(ctx context.Context, actor *models.User) *models.User {
	u, err := s.store.Users().FindByID(ctx, actor.ID)
	if err != nil || u.Username != actor.Username {
		return nil
	}
	return u
}

// Push exports an archive and uploads it to the configured sink, returning the object key.
func (s *Service) Push(ctx context.Context, actor *models.User) (string, error) {
	if !actor.Can(models.Backup) {
		return "", ErrForbidden
	}
	if s.sink == nil {
		return "", ErrSinkDisabled
	}

	var buf bytes.Buffer
	if err := Export(ctx, s.store, &buf); err != nil {
		return "", err
	}
	key := s.FileName()
	if err := s.sink.Put(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}
	slog.Info("backup pushed to object storage", "key", key, "bytes", buf.Len())
	return key, nil
}
