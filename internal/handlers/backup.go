package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"inkwell/internal/backup"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/session"

	"github.com/gin-gonic/gin"
)

const backupOverview = "/admin/backup_overview/"

type BackupHandler struct {
	backups  *backup.Service
	sessions *session.Manager
}

func NewBackupHandler(backups *backup.Service, sessions *session.Manager) *BackupHandler {
	return &BackupHandler{backups: backups, sessions: sessions}
}

func (h *BackupHandler) Overview(c *gin.Context) {
	if !middleware.CurrentUser(c).Can(models.Backup) {
		RenderFailure(c, backup.ErrForbidden)
		return
	}
	Render(c, http.StatusOK, "admin/backup.html", gin.H{"SinkEnabled": h.backups.SinkEnabled()})
}

// Download streams a fresh archive as an attachment.
func (h *BackupHandler) Download(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.backups.Export(c.Request.Context(), middleware.CurrentUser(c), &buf); err != nil {
		RenderFailure(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.backups.FileName()))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

// Restore replaces the whole dataset with the uploaded backup_file. The owner
// stays signed in when their account is part of the archive.
func (h *BackupHandler) Restore(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if !user.Can(models.Backup) {
		RenderFailure(c, backup.ErrForbidden)
		return
	}

	header, err := c.FormFile("backup_file")
	if err != nil {
		addFlash(c, "Choose a backup archive to restore.")
		c.Redirect(http.StatusFound, backupOverview)
		return
	}
	f, err := header.Open()
	if err != nil {
		RenderFailure(c, err)
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	sum, err := h.backups.Restore(ctx, user, f, header.Size)
	switch {
	case errors.Is(err, backup.ErrUnsupportedVersion):
		addFlash(c, "This backup was made by an unsupported version. Nothing was changed.")
		c.Redirect(http.StatusFound, backupOverview)
		return
	case errors.Is(err, backup.ErrMalformedArchive):
		addFlash(c, "The file is not a valid backup archive. Nothing was changed.")
		c.Redirect(http.StatusFound, backupOverview)
		return
	case err != nil:
		RenderFailure(c, err)
		return
	}

	addFlash(c, fmt.Sprintf("Restored %d posts, %d pages, %d tags, %d users, %d comments and %d files.",
		sum.Posts, sum.Pages, sum.Tags, sum.Users, sum.Comments, sum.Files))

	survivor := h.backups.Survivor(ctx, user)
	if survivor == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if err := h.sessions.Issue(ctx, c.Writer, survivor); err != nil {
		RenderFailure(c, err)
		return
	}
	c.Redirect(http.StatusFound, backupOverview)
}

// Push uploads a fresh archive to the configured bucket.
func (h *BackupHandler) Push(c *gin.Context) {
	key, err := h.backups.Push(c.Request.Context(), middleware.CurrentUser(c))
	switch {
	case errors.Is(err, backup.ErrSinkDisabled):
		addFlash(c, "No object storage is configured.")
	case errors.Is(err, backup.ErrForbidden):
		RenderFailure(c, err)
		return
	case err != nil:
		slog.Error("backup push failed", "user", middleware.CurrentUser(c).Username, "error", err)
		addFlash(c, "Upload to object storage failed: "+err.Error())
	default:
		addFlash(c, "Backup uploaded as "+key+".")
	}
	c.Redirect(http.StatusFound, backupOverview)
}
