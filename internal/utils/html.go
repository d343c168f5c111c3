package utils

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnhanceHTMLContent adds lazy loading and a no-referrer policy to every image.
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	return template.HTML(bodyHTML(doc, htmlStr))
}

// AbsolutizeLinks resolves every relative src and href in htmlStr against base.
// Feed readers need absolute URLs since they render entries outside the site.
func AbsolutizeLinks(htmlStr, base string) string {
	if htmlStr == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return htmlStr
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	for _, attr := range []string{"src", "href"} {
		doc.Find("[" + attr + "]").Each(func(i int, s *goquery.Selection) {
			raw, _ := s.Attr(attr)
			ref, err := url.Parse(strings.TrimSpace(raw))
			if err != nil || ref.IsAbs() {
				return
			}
			s.SetAttr(attr, baseURL.ResolveReference(ref).String())
		})
	}

	return bodyHTML(doc, htmlStr)
}

// bodyHTML returns the fragment goquery wrapped in <html><body>.
func bodyHTML(doc *goquery.Document, fallback string) string {
	out, err := doc.Find("body").Html()
	if err != nil {
		return fallback
	}
	if out == "" {
		out, _ = doc.Html()
	}
	return out
}
