package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/utils"
)

// ForcedDateLayout is the admin form format for forced dates (YYYY-MM-DD HH:MM).
const ForcedDateLayout = "2006-01-02 15:04"

var whitespaceRun = regexp.MustCompile(`\s\s+`)

// Content serves published posts and pages and implements the admin editors.
type Content struct {
	store        *store.Store
	postsPerPage int

	Now func() time.Time
}

func NewContent(st *store.Store, postsPerPage int) *Content {
	return &Content{store: st, postsPerPage: postsPerPage, Now: utcNow}
}

// PostList is one page of a post listing. Newer and Older are page numbers,
// -1 when there is no such page.
type PostList struct {
	Posts  []models.Post
	Page   int
	Newer  int
	Older  int
	Total  int64
	Author *models.User
	Tag    *models.Tag
}

// ListPosts returns page number page (zero based) of the published posts matching f.
func (c *Content) ListPosts(ctx context.Context, f store.PostFilter, page int) (*PostList, error) {
	if page < 0 {
		page = 0
	}
	posts, total, err := c.store.Posts().ListPublished(ctx, f, page*c.postsPerPage, c.postsPerPage)
	if err != nil {
		return nil, err
	}

	list := &PostList{Posts: posts, Page: page, Newer: -1, Older: -1, Total: total}
	if page > 0 {
		list.Newer = page - 1
	}
	if total > int64((page+1)*c.postsPerPage) {
		list.Older = page + 1
	}
	return list, nil
}

// ListByAuthor is ListPosts restricted to one author.
func (c *Content) ListByAuthor(ctx context.Context, username string, page int) (*PostList, error) {
	author, err := c.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	list, err := c.ListPosts(ctx, store.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	list.Author = author
	return list, nil
}

// ListByTag is ListPosts restricted to one tag.
func (c *Content) ListByTag(ctx context.Context, uid string, page int) (*PostList, error) {
	tag, err := c.store.Tags().FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	list, err := c.ListPosts(ctx, store.PostFilter{TagID: tag.ID}, page)
	if err != nil {
		return nil, err
	}
	list.Tag = tag
	return list, nil
}

// Post resolves a post URL. Drafts are only visible to users holding POST_WRITE.
func (c *Content) Post(ctx context.Context, viewer *models.User, year, month int, uid string) (*models.Post, error) {
	p, err := c.store.Posts().FindByPath(ctx, year, month, uid)
	if err != nil {
		return nil, err
	}
	if p.Draft && !viewer.Can(models.PostWrite) {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (c *Content) PostFile(ctx context.Context, viewer *models.User, year, month int, uid, name string) (*models.File, error) {
	p, err := c.Post(ctx, viewer, year, month, uid)
	if err != nil {
		return nil, err
	}
	if f := p.FileNamed(name); f != nil {
		return f, nil
	}
	return nil, store.ErrNotFound
}

func (c *Content) Page(ctx context.Context, uid string) (*models.Page, error) {
	return c.store.Pages().FindByUID(ctx, uid)
}

func (c *Content) PageFile(ctx context.Context, uid, name string) (*models.File, error) {
	p, err := c.store.Pages().FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if f := p.FileNamed(name); f != nil {
		return f, nil
	}
	return nil, store.ErrNotFound
}

// AdminPosts lists every post, drafts included, by date descending.
func (c *Content) AdminPosts(ctx context.Context, actor *models.User) ([]models.Post, error) {
	if !actor.Can(models.PostWrite) {
		return nil, ErrForbidden
	}
	return c.store.Posts().Newest(ctx)
}

// AdminPages lists every page, most recently created first.
func (c *Content) AdminPages(ctx context.Context, actor *models.User) ([]models.Page, error) {
	if !actor.Can(models.PageWrite) {
		return nil, ErrForbidden
	}
	return c.store.Pages().Newest(ctx)
}

// EditablePost loads a post for the editor. id 0 yields an unsaved draft.
func (c *Content) EditablePost(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	if !actor.Can(models.PostWrite) {
		return nil, ErrForbidden
	}
	if id == 0 {
		return models.NewPost(c.Now()), nil
	}
	return c.store.Posts().FindByID(ctx, id)
}

func (c *Content) EditablePage(ctx context.Context, actor *models.User, id uint) (*models.Page, error) {
	if !actor.Can(models.PageWrite) {
		return nil, ErrForbidden
	}
	if id == 0 {
		return &models.Page{EditDate: c.Now()}, nil
	}
	return c.store.Pages().FindByID(ctx, id)
}

// PostForm is the submitted post editor.
type PostForm struct {
	Title         string
	Body          string
	Tags          string // names separated by ";"
	Draft         bool
	AllowComments bool

	ForceDate      bool
	ForcedDate     string
	ForceEditDate  bool
	ForcedEditDate string

	Files []models.File
}

// SavePost creates (id 0) or updates a post from the editor form.
func (c *Content) SavePost(ctx context.Context, actor *models.User, id uint, form PostForm) (*models.Post, error) {
	if !actor.Can(models.PostWrite) {
		return nil, ErrForbidden
	}
	if err := checkFileNames(form.Files); err != nil {
		return nil, err
	}

	var saved *models.Post
	err := c.store.Transaction(ctx, func(tx *store.Store) error {
		now := c.Now()

		var p *models.Post
		if id == 0 {
			p = models.NewPost(now)
			uid, err := utils.UniqueSlug(utils.PrettyTitle(form.Title, "-"), func(s string) (bool, error) {
				return tx.Posts().UIDTaken(ctx, s)
			})
			if err != nil {
				return err
			}
			p.UID = uid
			p.Title = form.Title
			if err := tx.Posts().Save(ctx, p); err != nil {
				return err
			}
			if err := tx.Posts().AddAuthor(ctx, p, actor); err != nil {
				return err
			}
		} else {
			existing, err := tx.Posts().FindByID(ctx, id)
			if err != nil {
				return err
			}
			p = existing
			p.EditDate = now
		}

		p.Title = form.Title
		p.Body = form.Body
		p.AllowComments = form.AllowComments

		tags, err := resolveTags(ctx, tx, form.Tags)
		if err != nil {
			return err
		}
		if err := tx.Posts().ReplaceTags(ctx, p, tags); err != nil {
			return err
		}

		if p.Draft && !form.Draft {
			p.Date = now
			p.EditDate = now
		}
		p.Draft = form.Draft

		if form.ForceDate {
			if t, ok := parseForcedDate(form.ForcedDate); ok {
				p.Date = t
			}
		}
		if form.ForceEditDate {
			if t, ok := parseForcedDate(form.ForcedEditDate); ok {
				p.EditDate = t
			}
		}

		if err := replaceFiles(p.FileNamed, func(f *models.File) error {
			return tx.Posts().DeleteFile(ctx, p, f)
		}, form.Files); err != nil {
			return err
		}
		if err := tx.Posts().AttachFiles(ctx, p, form.Files); err != nil {
			return err
		}

		if err := tx.Posts().Save(ctx, p); err != nil {
			return err
		}
		saved = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}
	return saved, nil
}

// PageForm is the submitted page editor.
type PageForm struct {
	Title          string
	Body           string
	ForceEditDate  bool
	ForcedEditDate string
	Files          []models.File
}

// SavePage creates (id 0) or updates a page. The edit date is refreshed on every save.
func (c *Content) SavePage(ctx context.Context, actor *models.User, id uint, form PageForm) (*models.Page, error) {
	if !actor.Can(models.PageWrite) {
		return nil, ErrForbidden
	}
	if err := checkFileNames(form.Files); err != nil {
		return nil, err
	}

	var saved *models.Page
	err := c.store.Transaction(ctx, func(tx *store.Store) error {
		p := &models.Page{}
		if id == 0 {
			uid, err := utils.UniqueSlug(utils.PrettyTitle(form.Title, "-"), func(s string) (bool, error) {
				return tx.Pages().UIDTaken(ctx, s)
			})
			if err != nil {
				return err
			}
			p.UID = uid
		} else {
			existing, err := tx.Pages().FindByID(ctx, id)
			if err != nil {
				return err
			}
			p = existing
		}

		p.Title = form.Title
		p.Body = form.Body
		p.EditDate = c.Now()
		if form.ForceEditDate {
			if t, ok := parseForcedDate(form.ForcedEditDate); ok {
				p.EditDate = t
			}
		}

		if err := tx.Pages().Save(ctx, p); err != nil {
			return err
		}
		if err := replaceFiles(p.FileNamed, func(f *models.File) error {
			return tx.Pages().DeleteFile(ctx, p, f)
		}, form.Files); err != nil {
			return err
		}
		if err := tx.Pages().AttachFiles(ctx, p, form.Files); err != nil {
			return err
		}
		saved = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save page: %w", err)
	}
	return saved, nil
}

// DeletePost hard-deletes a post with its files and comments.
func (c *Content) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if !actor.Can(models.PostWrite) {
		return ErrForbidden
	}
	p, err := c.store.Posts().FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.store.Posts().Delete(ctx, p)
}

func (c *Content) DeletePage(ctx context.Context, actor *models.User, id uint) error {
	if !actor.Can(models.PageWrite) {
		return ErrForbidden
	}
	p, err := c.store.Pages().FindByID(ctx, id)
	if err != nil {
		return err
	}
	return c.store.Pages().Delete(ctx, p)
}

// DeletePostFile removes one attachment of a post by name.
func (c *Content) DeletePostFile(ctx context.Context, actor *models.User, id uint, name string) (*models.Post, error) {
	if !actor.Can(models.PostWrite) {
		return nil, ErrForbidden
	}
	p, err := c.store.Posts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f := p.FileNamed(name)
	if f == nil {
		return nil, store.ErrNotFound
	}
	return p, c.store.Posts().DeleteFile(ctx, p, f)
}

func (c *Content) DeletePageFile(ctx context.Context, actor *models.User, id uint, name string) (*models.Page, error) {
	if !actor.Can(models.PageWrite) {
		return nil, ErrForbidden
	}
	p, err := c.store.Pages().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f := p.FileNamed(name)
	if f == nil {
		return nil, store.ErrNotFound
	}
	return p, c.store.Pages().DeleteFile(ctx, p, f)
}

// SplitTags turns "a; b  c ;;" into ["a", "b c"].
func SplitTags(raw string) []string {
	var names []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ";") {
		name := whitespaceRun.ReplaceAllString(strings.TrimSpace(part), " ")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// resolveTags reuses tags by name and creates the missing ones with a unique slug.
func resolveTags(ctx context.Context, tx *store.Store, raw string) ([]models.Tag, error) {
	var tags []models.Tag
	for _, name := range SplitTags(raw) {
		tag, err := tx.Tags().FindByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			uid, err := utils.UniqueSlug(utils.PrettyTitle(name, "-"), func(s string) (bool, error) {
				return tx.Tags().UIDTaken(ctx, s)
			})
			if err != nil {
				return nil, err
			}
			tag = &models.Tag{Name: name, UID: uid}
			if err := tx.Tags().Create(ctx, tag); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func checkFileNames(files []models.File) error {
	for _, f := range files {
		if f.Name == models.ReservedFileName {
			return fmt.Errorf("%w: %s", ErrReservedName, f.Name)
		}
	}
	return nil
}

// replaceFiles drops existing attachments that an upload of the same name supersedes.
func replaceFiles(named func(string) *models.File, remove func(*models.File) error, uploads []models.File) error {
	for _, up := range uploads {
		if old := named(up.Name); old != nil {
			if err := remove(old); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseForcedDate(s string) (time.Time, bool) {
	t, err := time.Parse(ForcedDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
