package dataportal

import (
	"regexp"
	"strings"
)

// htmlPattern removes tags and named/numeric character references.
var htmlPattern = regexp.MustCompile(`<.*?>|&([a-z0-9]+|#[0-9]{1,6}|#x[0-9a-f]{1,6});`)

var (
	listBlock = regexp.MustCompile(`<ul[^>]*>|</ul>`)
	listItem  = regexp.MustCompile(`<li[^>]*>|</li>`)
)

// StripHTML removes all tags and entities; nothing is decoded.
func StripHTML(s string) string {
	return htmlPattern.ReplaceAllString(s, "")
}

// SanitizeText turns list markup into line breaks and then strips the rest.
func SanitizeText(s string) string {
	if strings.Contains(s, "<ul") || strings.Contains(s, "<li") {
		s = listBlock.ReplaceAllString(s, "\n\n")
		s = listItem.ReplaceAllString(s, "\n")
	}
	return StripHTML(s)
}
