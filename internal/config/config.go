// Package config loads the server settings once at startup. The resulting
// Config is treated as immutable and passed explicitly to the components
// that need it.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider holds the client credentials of one OAuth2 identity provider.
type Provider struct {
	ClientID     string
	ClientSecret string
}

// ObjectStorage describes the optional S3-compatible bucket that receives backup archives.
type ObjectStorage struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether a bucket is configured.
func (o ObjectStorage) Enabled() bool {
	return o.Bucket != ""
}

type Config struct {
	Debug         bool
	SiteTitle     string
	Port          string
	SiteURL       string
	SecureSiteURL string
	DatabaseURL   string
	SQLitePath    string
	SessionSecret string
	TemplatesDir  string

	PostsPerPage int
	AtomPosts    int

	OneTimeAdminPassword string
	Providers            map[string]Provider
	Storage              ObjectStorage
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading configuration from the environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for unset keys.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Debug:         getenv("DEBUG") != "",
		SiteTitle:     get("SITE_TITLE", "Inkwell"),
		Port:          get("PORT", "8080"),
		DatabaseURL:   get("DATABASE_URL", ""),
		SQLitePath:    get("SQLITE_PATH", "inkwell.sqlite3"),
		SessionSecret: get("SESSION_SECRET", "change-me-inkwell-flash-secret"),
		TemplatesDir:  get("TEMPLATES_DIR", "./web/templates"),
		PostsPerPage:  positiveInt(get("POSTS_PER_PAGE", ""), 10),
		AtomPosts:     positiveInt(get("ATOM_POSTS", ""), 20),

		OneTimeAdminPassword: get("ONE_TIME_ADMIN_PASSWORD", ""),
		Providers:            map[string]Provider{},
		Storage: ObjectStorage{
			Bucket:    get("BACKUP_S3_BUCKET", ""),
			Region:    get("BACKUP_S3_REGION", "us-east-1"),
			Endpoint:  get("BACKUP_S3_ENDPOINT", ""),
			AccessKey: get("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: get("BACKUP_S3_SECRET_KEY", ""),
		},
	}

	cfg.SiteURL = strings.TrimSuffix(get("SITE_URL", "http://localhost:"+cfg.Port), "/")
	cfg.SecureSiteURL = strings.TrimSuffix(get("SECURE_SITE_URL", cfg.SiteURL), "/")

	for _, name := range []string{"google", "github"} {
		prefix := strings.ToUpper(name) + "_OAUTH2_"
		id := get(prefix+"CLIENT_ID", "")
		if id == "" {
			continue
		}
		cfg.Providers[name] = Provider{ClientID: id, ClientSecret: get(prefix+"CLIENT_SECRET", "")}
	}

	return cfg
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
