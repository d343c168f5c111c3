// Package render assembles the HTML templates. Every view is parsed together
// with the shared layouts, includes and components, so views only define the
// blocks they fill.
package render

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/services"
	"inkwell/internal/utils"

	"github.com/gin-contrib/multitemplate"
)

// Views are the names handlers render, relative to <dir>/views.
var Views = []string{
	"error.html",
	"blog/list.html",
	"blog/post.html",
	"blog/page.html",
	"auth/login.html",
	"admin/elevation.html",
	"admin/posts.html",
	"admin/pages.html",
	"admin/users.html",
	"admin/edit_post.html",
	"admin/edit_page.html",
	"admin/backup.html",
}

// Load parses every view under dir. Post previews link against siteURL. It panics
// when a template does not parse, the way multitemplate reports it.
func Load(dir, siteURL string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	var shared []string
	for _, group := range []string{"layouts", "includes", "components"} {
		files, err := filepath.Glob(filepath.Join(dir, group, "*.html"))
		if err != nil {
			panic(err)
		}
		shared = append(shared, files...)
	}

	assemble := func(view string) []string {
		files := make([]string, 0, len(shared)+1)
		files = append(files, shared...)
		return append(files, filepath.Join(dir, "views", view))
	}

	funcs := FuncMap(siteURL)
	for _, view := range Views {
		r.AddFromFilesFuncs(view, funcs, assemble(view)...)
	}
	return r
}

// FuncMap holds the helpers available to every template.
func FuncMap(siteURL string) template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"add": func(a, b int) int {
			return a + b
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"urlquery": func(s string) string {
			return url.QueryEscape(s)
		},
		"markdown": utils.RenderMarkdown,
		// preview renders a post body for listings, with relative links resolved
		// against the post's own URL.
		"preview": func(p models.Post) template.HTML {
			return template.HTML(utils.AbsolutizeLinks(p.Body, siteURL+p.Path()))
		},
		"date": func(t time.Time) string {
			return t.UTC().Format("January 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"formDate": func(t time.Time) string {
			return t.UTC().Format(services.ForcedDateLayout)
		},
		"can": func(u *models.User, c string) bool {
			return u.Can(models.Capability(c))
		},
		"canToggle": func(u *models.User, c models.Comment) bool {
			return c.TogglableBy(u)
		},
		"tagNames": func(tags []models.Tag) string {
			names := make([]string, len(tags))
			for i, t := range tags {
				names[i] = t.Name
			}
			return strings.Join(names, "; ")
		},
		"levels": func() []models.AccessLevel {
			return []models.AccessLevel{models.LevelOwner, models.LevelCollaborator, models.LevelVisitor}
		},
	}
}
