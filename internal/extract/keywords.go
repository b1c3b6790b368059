// Package extract turns provider answer text and raw search hits into tool
// records.
package extract

import (
	"net/url"
	"regexp"
	"strings"
)

// contentLine matches informational-content markers. A line that matches
// never contributes a name or description.
var contentLine = regexp.MustCompile(`(?i)\b(blogs?|articles?|news|reviews?|guides?|tutorials?|how\s+to|what\s+is|what\s+are|why\s+use|listicles?)\b|\b(top|best)\s+\d+\b|\b\d+\s+(best|top)\b`)

// contentHit extends contentLine with list markers that only make sense for
// search hit titles ("10 AI tools", "a list of ...").
var contentHit = regexp.MustCompile(`(?i)\b(lists?|roundup|ranked|ranking)\b|\b\d+\s+(ai|tools|apps|software|alternatives)\b`)

// genericNames are words that show up where a tool name is expected but
// never name a tool.
var genericNames = map[string]bool{
	"home":          true,
	"homepage":      true,
	"page":          true,
	"welcome":       true,
	"index":         true,
	"official site": true,
	"website":       true,
	"login":         true,
	"log in":        true,
	"sign in":       true,
	"sign up":       true,
	"untitled":      true,
	"pricing":       true,
	"plans":         true,
	"description":   true,
	"features":      true,
	"overview":      true,
	"summary":       true,
	"conclusion":    true,
	"note":          true,
	"notes":         true,
	"tools":         true,
	"url":           true,
	"link":          true,
}

// maxNameWords bounds how long a derived tool name may be.
const maxNameWords = 6

// IsContentLine reports whether an answer line carries informational
// content markers (blog, article, review, "how to" ...).
func IsContentLine(line string) bool {
	return contentLine.MatchString(line)
}

// IsContentHost reports whether rawURL's host carries a content marker as
// one of its labels, as in news.example.ai.
func IsContentHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	return contentLine.MatchString(strings.ReplaceAll(u.Hostname(), ".", " "))
}

// isContentHit reports whether a search hit title looks like an article or
// listicle rather than a product page.
func isContentHit(s string) bool {
	return contentLine.MatchString(s) || contentHit.MatchString(s)
}

// plausibleName reports whether name can stand as a tool name.
func plausibleName(name string) bool {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return false
	}
	if genericNames[strings.ToLower(name)] {
		return false
	}
	return len(strings.Fields(name)) <= maxNameWords
}
