package utils

import (
	"github.com/microcosm-cc/bluemonday"
)

var commentPolicy = newCommentPolicy()

// newCommentPolicy keeps <a href title>, <b> and <i>. Everything else is stripped
// with its text kept.
func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i")
	p.AllowAttrs("href", "title").OnElements("a")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("mailto", "http", "https")
	return p
}

// SanitizeComment reduces user-submitted comment HTML to the allowed subset.
func SanitizeComment(body string) string {
	return commentPolicy.Sanitize(body)
}
