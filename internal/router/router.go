package router

import (
	"inkwell/internal/handlers"
	"inkwell/internal/middleware"
	"inkwell/internal/session"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the route table dispatches to.
type Handlers struct {
	Blog     *handlers.BlogHandler
	Feed     *handlers.FeedHandler
	Comment  *handlers.CommentHandler
	Auth     *handlers.AuthHandler
	Admin    *handlers.AdminHandler
	Backup   *handlers.BackupHandler
	SEO      *handlers.SEOHandler
	Sessions *session.Manager

	SecureSiteURL string
	Debug         bool
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.Use(middleware.LoadUser(h.Sessions), middleware.RollSession(h.Sessions), middleware.CSRF(h.Sessions))

	// Public routes
	r.GET("/", h.Blog.Index)
	r.GET("/posts/:page/", h.Blog.Index)
	r.GET("/author/:username/", h.Blog.Author)
	r.GET("/author/:username/:page/", h.Blog.Author)
	r.GET("/tag/:uid/", h.Blog.Tag)
	r.GET("/tag/:uid/:page/", h.Blog.Tag)
	r.GET("/:year/:month/:uid/", h.Blog.Post)
	r.GET("/:year/:month/:uid/:filename", h.Blog.PostFile)
	r.GET("/page/:uid/", h.Blog.Page)
	r.GET("/page/:uid/:filename", h.Blog.PageFile)

	r.GET("/feed/", h.Feed.Site)
	r.GET("/tag/:uid/feed/", h.Feed.Tag)
	r.GET("/author/:username/feed/", h.Feed.Author)

	r.GET("/robots.txt", h.SEO.RobotsTxt)
	r.GET("/sitemap.xml", h.SEO.SitemapXML)

	// Write paths only run over the secure site
	secure := r.Group("/", middleware.SecureRedirect(h.SecureSiteURL, h.Debug))
	{
		secure.GET("/login/", h.Auth.ShowLogin)
		secure.GET("/oauth2_login/:provider/", h.Auth.Login)
		secure.GET("/oauth2callback/:provider/", h.Auth.Callback)
		secure.GET("/logout/", h.Auth.Logout)

		secure.POST("/submit_comment/:id/", h.Comment.Submit)
		secure.POST("/toggle_delete_comment/:id/", h.Comment.ToggleDelete)
	}

	// Admin routes
	admin := r.Group("/admin", middleware.SecureRedirect(h.SecureSiteURL, h.Debug), middleware.AuthRequired())
	{
		admin.GET("/one_time_elevation/", h.Auth.ShowElevation)
		admin.POST("/one_time_elevation/", h.Auth.Elevate)

		admin.GET("/posts_overview/", h.Admin.PostsOverview)
		admin.GET("/pages_overview/", h.Admin.PagesOverview)
		admin.GET("/users_overview/", h.Admin.UsersOverview)

		admin.GET("/edit_post/", h.Admin.ShowEditPost)
		admin.POST("/edit_post/", h.Admin.SavePost)
		admin.GET("/edit_page/", h.Admin.ShowEditPage)
		admin.POST("/edit_page/", h.Admin.SavePage)
		admin.POST("/delete_file/:doc/:id/:filename/", h.Admin.DeleteFile)
		admin.POST("/delete_post/:id/", h.Admin.DeletePost)
		admin.POST("/delete_page/:id/", h.Admin.DeletePage)
		admin.POST("/edit_user/", h.Admin.EditUser)

		admin.GET("/backup_overview/", h.Backup.Overview)
		admin.GET("/backup/", h.Backup.Download)
		admin.POST("/restore_backup/", h.Backup.Restore)
		admin.POST("/push_backup/", h.Backup.Push)
	}
}
