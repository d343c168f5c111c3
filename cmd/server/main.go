package main

import (
	"context"
	"log/slog"
	"os"

	"inkwell/internal/backup"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/oauth"
	"inkwell/internal/render"
	"inkwell/internal/router"
	"inkwell/internal/services"
	"inkwell/internal/session"
	"inkwell/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.Debug)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	st := store.New(conn)

	var sink backup.Sink
	if cfg.Storage.Enabled() {
		client, err := backup.NewS3Client(context.Background(), cfg.Storage)
		if err != nil {
			slog.Error("object storage unavailable", "bucket", cfg.Storage.Bucket, "error", err)
			os.Exit(1)
		}
		sink = backup.NewS3Sink(client, cfg.Storage.Bucket)
		slog.Info("backup object storage enabled", "bucket", cfg.Storage.Bucket)
	}

	providers := oauth.NewProviders(cfg)
	if len(providers) == 0 {
		slog.Warn("no identity provider configured, nobody will be able to log in")
	}

	sm := session.NewManager(st.Users(), cfg.Debug)
	accounts := services.NewAccounts(st, providers, cfg.OneTimeAdminPassword)
	content := services.NewContent(st, cfg.PostsPerPage)

	// Initialize Gin
	r := gin.Default()
	r.MaxMultipartMemory = services.MaxUploadSize

	// One-shot flash messages for the admin screens
	flashStore := cookie.NewStore([]byte(cfg.SessionSecret))
	flashStore.Options(sessions.Options{Path: "/", HttpOnly: true, Secure: !cfg.Debug})
	r.Use(sessions.Sessions("inkwell_flash", flashStore))
	r.Use(middleware.SiteTitle(cfg.SiteTitle))

	r.HTMLRender = render.Load(cfg.TemplatesDir, cfg.SecureSiteURL)
	r.Static("/static", "./web/static")

	router.RegisterRoutes(r, router.Handlers{
		Blog:     handlers.NewBlogHandler(content),
		Feed:     handlers.NewFeedHandler(services.NewFeeds(st, cfg.SiteURL, cfg.SiteTitle, cfg.AtomPosts)),
		Comment:  handlers.NewCommentHandler(services.NewComments(st)),
		Auth:     handlers.NewAuthHandler(accounts, sm),
		Admin:    handlers.NewAdminHandler(content, accounts),
		Backup:   handlers.NewBackupHandler(backup.NewService(st, sink), sm),
		SEO:      handlers.NewSEOHandler(services.NewSitemap(st, cfg.SiteURL), cfg.SiteURL),
		Sessions: sm,

		SecureSiteURL: cfg.SecureSiteURL,
		Debug:         cfg.Debug,
	})

	slog.Info("inkwell server starting", "port", cfg.Port, "site", cfg.SiteURL, "debug", cfg.Debug)
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
