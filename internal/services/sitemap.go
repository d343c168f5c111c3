package services

import (
	"context"
	"encoding/xml"
	"io"
	"time"

	"inkwell/internal/store"
)

const (
	sitemapNS       = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapMaxPosts = 500
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap lists the public URLs of the blog for crawlers.
type Sitemap struct {
	store   *store.Store
	siteURL string

	Now func() time.Time
}

func NewSitemap(st *store.Store, siteURL string) *Sitemap {
	return &Sitemap{store: st, siteURL: siteURL, Now: utcNow}
}

// Write encodes the index, the most recent published posts, every page and every tag.
func (s *Sitemap) Write(ctx context.Context, w io.Writer) error {
	posts, _, err := s.store.Posts().ListPublished(ctx, store.PostFilter{}, 0, sitemapMaxPosts)
	if err != nil {
		return err
	}
	pages, err := s.store.Pages().Newest(ctx)
	if err != nil {
		return err
	}
	tags, err := s.store.Tags().All(ctx)
	if err != nil {
		return err
	}

	indexMod := s.Now()
	if len(posts) > 0 {
		indexMod = posts[0].Date
	}
	set := sitemapURLSet{Xmlns: sitemapNS}
	set.URLs = append(set.URLs, sitemapURL{Loc: s.siteURL + "/", LastMod: day(indexMod), ChangeFreq: "daily", Priority: "1.0"})

	for i := range posts {
		p := &posts[i]
		set.URLs = append(set.URLs, sitemapURL{Loc: s.siteURL + p.Path(), LastMod: day(p.EditDate), Priority: "0.8"})
	}
	for i := range pages {
		p := &pages[i]
		set.URLs = append(set.URLs, sitemapURL{Loc: s.siteURL + p.Path(), LastMod: day(p.EditDate), Priority: "0.6"})
	}
	for _, t := range tags {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.siteURL + "/tag/" + t.UID + "/", ChangeFreq: "weekly", Priority: "0.5"})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(set)
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
