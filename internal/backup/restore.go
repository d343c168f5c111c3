package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// Summary counts what a restore recreated.
type Summary struct {
	Tags     int
	Users    int
	Posts    int
	Pages    int
	Files    int
	Comments int
}

// archive indexes zip entries by their name without a leading slash, so both
// "info.yaml" and "/info.yaml" layouts resolve.
type archive map[string]*zip.File

func openArchive(r io.ReaderAt, size int64) (archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArchive, err)
	}
	a := archive{}
	for _, f := range zr.File {
		a[strings.TrimPrefix(f.Name, "/")] = f
	}
	return a, nil
}

func (a archive) read(name string) ([]byte, error) {
	f, ok := a[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedArchive, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformedArchive, name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformedArchive, name, err)
	}
	return data, nil
}

func (a archive) yaml(name string, v any) error {
	data, err := a.read(name)
	if err != nil {
		return err
	}
	return unmarshal(name, data, v)
}

// version reads info.yaml without touching anything else.
func (a archive) version() (string, error) {
	var info Info
	if err := a.yaml("info.yaml", &info); err != nil {
		return "", err
	}
	return info.Version, nil
}

// contents is a fully parsed archive, ready to be written in one go.
type contents struct {
	tags  []TagRecord
	users []UserRecord
	posts []PostRecord
	pages []PageRecord
	files map[string][]byte // keyed by entry name
}

func (a archive) parse() (*contents, error) {
	c := &contents{files: map[string][]byte{}}
	if err := a.yaml("tags.yaml", &c.tags); err != nil {
		return nil, err
	}
	if err := a.yaml("users.yaml", &c.users); err != nil {
		return nil, err
	}

	var postIDs, pageIDs []uint
	if err := a.yaml("posts/index.yaml", &postIDs); err != nil {
		return nil, err
	}
	if err := a.yaml("pages/index.yaml", &pageIDs); err != nil {
		return nil, err
	}

	for _, id := range postIDs {
		dir := path.Join("posts", strconv.FormatUint(uint64(id), 10))
		var r PostRecord
		if err := a.yaml(path.Join(dir, recordName), &r); err != nil {
			return nil, err
		}
		if err := a.collectFiles(c.files, dir, r.Files); err != nil {
			return nil, err
		}
		c.posts = append(c.posts, r)
	}
	for _, id := range pageIDs {
		dir := path.Join("pages", strconv.FormatUint(uint64(id), 10))
		var r PageRecord
		if err := a.yaml(path.Join(dir, recordName), &r); err != nil {
			return nil, err
		}
		if err := a.collectFiles(c.files, dir, r.Files); err != nil {
			return nil, err
		}
		c.pages = append(c.pages, r)
	}
	return c, nil
}

func (a archive) collectFiles(into map[string][]byte, dir string, names []string) error {
	for _, name := range names {
		if name == "" || name == recordName || strings.ContainsAny(name, `/\`) || name == ".." {
			return fmt.Errorf("%w: bad file name %q in %s", ErrMalformedArchive, name, dir)
		}
		entry := path.Join(dir, name)
		data, err := a.read(entry)
		if err != nil {
			return err
		}
		into[entry] = data
	}
	return nil
}

// Restore replaces the whole store with the archive content. The version is
// checked before anything is written, and every write happens in a single
// transaction so a failing restore leaves the previous data in place.
func Restore(ctx context.Context, st *store.Store, r io.ReaderAt, size int64) (*Summary, error) {
	a, err := openArchive(r, size)
	if err != nil {
		return nil, err
	}
	version, err := a.version()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}

	c, err := a.parse()
	if err != nil {
		return nil, err
	}

	var sum Summary
	err = st.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Wipe(ctx); err != nil {
			return err
		}
		if err := c.load(ctx, tx, &sum); err != nil {
			return err
		}
		return tx.ResyncSequences(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	return &sum, nil
}

func (c *contents) load(ctx context.Context, tx *store.Store, sum *Summary) error {
	for _, r := range c.tags {
		t := r.model()
		if err := tx.Tags().Create(ctx, &t); err != nil {
			return fmt.Errorf("tag %d: %w", r.ID, err)
		}
		sum.Tags++
	}

	users := map[uint]bool{}
	for _, r := range c.users {
		u, err := r.model()
		if err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, &u); err != nil {
			return fmt.Errorf("user %d: %w", r.ID, err)
		}
		users[u.ID] = true
		sum.Users++
	}

	for _, r := range c.posts {
		p, err := c.post(ctx, tx, r, users)
		if err != nil {
			return err
		}
		if err := tx.Posts().Create(ctx, p); err != nil {
			return fmt.Errorf("post %d: %w", r.ID, err)
		}
		sum.Posts++
		sum.Files += len(p.Files)
		sum.Comments += len(p.Comments)
	}

	for _, r := range c.pages {
		editDate, err := parseTime("page "+r.UID, r.EditDate)
		if err != nil {
			return err
		}
		p := &models.Page{ID: r.ID, UID: r.UID, Title: r.Title, Body: r.Body, EditDate: editDate}
		p.Files = c.attachments("pages", r.ID, r.Files)
		if err := tx.Pages().Create(ctx, p); err != nil {
			return fmt.Errorf("page %d: %w", r.ID, err)
		}
		sum.Pages++
		sum.Files += len(p.Files)
	}
	return nil
}

// post rebuilds a post record. Tags and authors are looked up by id and silently
// dropped when the archive does not define them; comment authors likewise.
func (c *contents) post(ctx context.Context, tx *store.Store, r PostRecord, users map[uint]bool) (*models.Post, error) {
	name := "post " + r.UID
	date, err := parseTime(name, r.Date)
	if err != nil {
		return nil, err
	}
	editDate, err := parseTime(name, r.EditDate)
	if err != nil {
		return nil, err
	}

	p := &models.Post{
		ID:            r.ID,
		UID:           r.UID,
		Title:         r.Title,
		Body:          r.Body,
		Draft:         r.Draft,
		AllowComments: r.AllowComments,
		Date:          date,
		EditDate:      editDate,
	}
	if p.Tags, err = tx.Tags().FindByIDs(ctx, r.Tags); err != nil {
		return nil, err
	}
	if p.Authors, err = tx.Users().FindByIDs(ctx, r.Authors); err != nil {
		return nil, err
	}

	for _, cr := range r.Comments {
		cdate, err := parseTime(name, cr.Date)
		if err != nil {
			return nil, err
		}
		comment := models.Comment{ID: cr.ID, Body: cr.Body, Date: cdate, Hidden: cr.Hidden, Deleted: cr.Deleted}
		if cr.Author != nil && users[*cr.Author] {
			id := *cr.Author
			comment.AuthorID = &id
		}
		p.Comments = append(p.Comments, comment)
	}

	p.Files = c.attachments("posts", r.ID, r.Files)
	return p, nil
}

func (c *contents) attachments(kind string, id uint, names []string) []models.File {
	dir := path.Join(kind, strconv.FormatUint(uint64(id), 10))
	files := make([]models.File, 0, len(names))
	for _, name := range names {
		files = append(files, models.File{Name: name, Content: c.files[path.Join(dir, name)]})
	}
	return files
}
