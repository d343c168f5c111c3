package services

import (
	"context"
	"encoding/xml"
	"io"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/utils"
)

const atomNS = "http://www.w3.org/2005/Atom"

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	ID      string      `xml:"id"`
	Title   string      `xml:"title"`
	Updated string      `xml:"updated"`
	Links   []atomLink  `xml:"link"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomPerson struct {
	Name string `xml:"name"`
	URI  string `xml:"uri,omitempty"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomText struct {
	Type string `xml:"type,attr"`
	Body string `xml:",chardata"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
	Links      []atomLink     `xml:"link"`
	Authors    []atomPerson   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Content    atomText       `xml:"content"`
}

// FeedScope selects whose posts a feed carries. The zero value is the whole blog.
type FeedScope struct {
	TagUID   string
	Username string
}

// Feeds renders Atom documents of the most recent published posts.
type Feeds struct {
	store   *store.Store
	siteURL string
	title   string
	size    int

	Now func() time.Time
}

func NewFeeds(st *store.Store, siteURL, title string, size int) *Feeds {
	return &Feeds{store: st, siteURL: siteURL, title: title, size: size, Now: utcNow}
}

// Write renders the feed for scope to w.
func (f *Feeds) Write(ctx context.Context, w io.Writer, scope FeedScope) error {
	feed, err := f.build(ctx, scope)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(feed)
}

func (f *Feeds) build(ctx context.Context, scope FeedScope) (*atomFeed, error) {
	var filter store.PostFilter
	title, selfPath, altPath := f.title, "/feed/", "/"

	switch {
	case scope.Username != "":
		author, err := f.store.Users().FindByUsername(ctx, scope.Username)
		if err != nil {
			return nil, err
		}
		filter.AuthorID = author.ID
		title = f.title + ": " + author.Name
		altPath = "/author/" + author.Username + "/"
		selfPath = altPath + "feed/"
	case scope.TagUID != "":
		tag, err := f.store.Tags().FindByUID(ctx, scope.TagUID)
		if err != nil {
			return nil, err
		}
		filter.TagID = tag.ID
		title = f.title + ": " + tag.Name
		altPath = "/tag/" + tag.UID + "/"
		selfPath = altPath + "feed/"
	}

	posts, _, err := f.store.Posts().ListPublished(ctx, filter, 0, f.size)
	if err != nil {
		return nil, err
	}

	updated := f.Now()
	if len(posts) > 0 {
		updated = posts[0].Date
	}

	feed := &atomFeed{
		Xmlns:   atomNS,
		ID:      f.siteURL + selfPath,
		Title:   title,
		Updated: atomTime(updated),
		Links: []atomLink{
			{Href: f.siteURL + selfPath, Rel: "self", Type: "application/atom+xml"},
			{Href: f.siteURL + altPath, Rel: "alternate", Type: "text/html"},
		},
	}
	for i := range posts {
		feed.Entries = append(feed.Entries, f.entry(&posts[i]))
	}
	return feed, nil
}

func (f *Feeds) entry(p *models.Post) atomEntry {
	url := f.siteURL + p.Path()
	e := atomEntry{
		ID:        url,
		Title:     p.Title,
		Published: atomTime(p.Date),
		Updated:   atomTime(p.EditDate),
		Links:     []atomLink{{Href: url, Rel: "alternate", Type: "text/html"}},
		Content:   atomText{Type: "html", Body: utils.AbsolutizeLinks(p.Body, url)},
	}
	for _, a := range p.Authors {
		e.Authors = append(e.Authors, atomPerson{Name: a.Name, URI: f.siteURL + "/author/" + a.Username + "/"})
	}
	for _, t := range p.Tags {
		e.Categories = append(e.Categories, atomCategory{Term: t.UID})
	}
	return e
}

func atomTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
