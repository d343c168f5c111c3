package utils

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PrettyTitle turns free text into a URL-safe slug: compatibility-decomposed,
// lowercased, reduced to [a-z0-9] words joined by sep. An empty result becomes "untitled".
func PrettyTitle(text, sep string) string {
	folded := strings.ToLower(norm.NFKD.String(text))

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	slug := strings.Join(strings.Fields(b.String()), sep)
	if slug == "" {
		return "untitled"
	}
	return slug
}

// UniqueSlug returns base when taken reports it free, otherwise base followed by
// the first non-negative integer that is free.
func UniqueSlug(base string, taken func(string) (bool, error)) (string, error) {
	used, err := taken(base)
	if err != nil || !used {
		return base, err
	}
	for i := 0; ; i++ {
		candidate := base + strconv.Itoa(i)
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
}
