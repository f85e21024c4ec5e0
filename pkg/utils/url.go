package utils

import (
	"net/url"
	"strings"
)

// Canonicalize resolves a possibly relative link against the source site's
// base URL. The resulting absolute URL is the product dedup key, so the same
// link must always canonicalize identically.
func Canonicalize(base *url.URL, link string) (string, error) {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link, nil
	}
	rel, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}

// TrailingSegment returns the last path segment of a link, used as the slug
// for navigation sections, categories and products.
func TrailingSegment(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
