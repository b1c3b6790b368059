// Package classify decides whether a candidate URL points at a product
// homepage or pricing page rather than blog, article or social content.
package classify

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/sells-group/toolscout/internal/model"
)

// contentDomains host articles, videos, discussions, listings or reviews
// about tools rather than the tools themselves. Subdomains match too.
var contentDomains = []string{
	"medium.com",
	"dev.to",
	"hashnode.dev",
	"substack.com",
	"wordpress.com",
	"blogspot.com",
	"tumblr.com",
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"tiktok.com",
	"twitch.tv",
	"reddit.com",
	"quora.com",
	"stackoverflow.com",
	"stackexchange.com",
	"news.ycombinator.com",
	"twitter.com",
	"x.com",
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"pinterest.com",
	"wikipedia.org",
	"producthunt.com",
	"g2.com",
	"capterra.com",
	"trustradius.com",
	"getapp.com",
	"softwareadvice.com",
	"alternativeto.net",
	"saasworthy.com",
	"futurepedia.io",
	"theresanaiforthat.com",
	"toolify.ai",
	"forbes.com",
	"techcrunch.com",
	"theverge.com",
	"zdnet.com",
	"pcmag.com",
	"cnet.com",
}

// codeHosts are only rejected on their discovery pages; a repository or
// feature page can still be a tool homepage.
var codeHosts = map[string]bool{
	"github.com": true,
	"gitlab.com": true,
}

var codeHostExplorePrefixes = []string{"explore", "topics", "trending", "collections", "search", "marketplace"}

// contentPathKeywords mark informational pages when they appear as a path
// segment or as a dash/underscore separated word inside one.
var contentPathKeywords = map[string]bool{
	"blog": true, "blogs": true,
	"article": true, "articles": true,
	"news": true,
	"post": true, "posts": true,
	"docs": true, "documentation": true,
	"guide": true, "guides": true,
	"tutorial": true, "tutorials": true,
	"review": true, "reviews": true,
	"category": true, "categories": true,
	"tag": true, "tags": true,
	"author": true, "authors": true,
	"forum": true, "forums": true,
	"community": true,
	"help": true, "support": true, "faq": true,
	"legal": true, "terms": true, "privacy": true,
	"careers": true, "jobs": true,
	"press": true,
	"wiki": true,
	"list": true, "lists": true,
	"compare": true, "comparison": true, "vs": true,
	"alternatives": true,
	"best": true, "top": true,
}

// nonHTMLExtensions are downloads or media, never a landing page.
var nonHTMLExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".csv": true, ".txt": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	".exe": true, ".dmg": true, ".msi": true, ".pkg": true, ".deb": true, ".rpm": true, ".apk": true,
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
	".mp3": true, ".wav": true,
}

// pricingWords mark commerce pages in a path segment or query.
var pricingWords = map[string]bool{
	"pricing": true, "price": true, "prices": true,
	"plans": true, "plan": true,
	"buy": true, "purchase": true,
	"subscribe": true, "subscription": true, "subscriptions": true,
	"upgrade": true, "premium": true,
	"billing": true, "checkout": true,
}

var (
	yearSegment = regexp.MustCompile(`^(19|20)\d{2}$`)
	wordSplit   = regexp.MustCompile(`[-_.+]+`)
)

// maxPathSegments is the deepest path accepted for a homepage candidate.
const maxPathSegments = 2

// IsAcceptableToolURL reports whether rawURL plausibly points at a tool's
// homepage or pricing page. Malformed URLs are rejected, never reported as
// errors. In relaxed mode a pricing URL is exempt from the path keyword and
// depth rules.
func IsAcceptableToolURL(rawURL string, mode model.Mode) bool {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return false
	}

	host := hostname(u)
	if isContentDomain(host) {
		return false
	}

	segments := pathSegments(u.Path)
	if codeHosts[host] && len(segments) > 0 && isExplorePath(segments[0]) {
		return false
	}
	if hasNonHTMLExtension(u.Path) {
		return false
	}

	if mode == model.ModeRelaxed && isPricing(u) {
		return true
	}

	for _, seg := range segments {
		if yearSegment.MatchString(seg) || segmentHasKeyword(seg, contentPathKeywords) {
			return false
		}
	}

	if len(segments) > maxPathSegments && !strings.HasPrefix(host, "app.") {
		return false
	}

	return true
}

// IsPricingURL reports whether rawURL looks like a pricing or commerce page.
func IsPricingURL(rawURL string) bool {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return false
	}
	return isPricing(u)
}

// Host returns the lowercased hostname of rawURL without a "www." prefix,
// or "" if rawURL does not parse as an absolute http(s) URL.
func Host(rawURL string) string {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return ""
	}
	return hostname(u)
}

// Origin returns scheme://host[:port] for rawURL, or "" when malformed.
func Origin(rawURL string) string {
	u, ok := parseAbsolute(rawURL)
	if !ok {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isPricing(u *url.URL) bool {
	for _, seg := range pathSegments(u.Path) {
		if segmentHasKeyword(seg, pricingWords) {
			return true
		}
	}
	for key, vals := range u.Query() {
		if pricingWords[strings.ToLower(key)] {
			return true
		}
		for _, v := range vals {
			if pricingWords[strings.ToLower(v)] {
				return true
			}
		}
	}
	frag := strings.ToLower(u.Fragment)
	return frag == "pricing" || frag == "plans"
}

func parseAbsolute(rawURL string) (*url.URL, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.ContainsAny(rawURL, " \t\n") {
		return nil, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	host := u.Hostname()
	if host == "" || !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return nil, false
	}
	return u, true
}

func hostname(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func isContentDomain(host string) bool {
	for _, d := range contentDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func isExplorePath(first string) bool {
	for _, p := range codeHostExplorePrefixes {
		if first == p {
			return true
		}
	}
	return false
}

func hasNonHTMLExtension(p string) bool {
	return nonHTMLExtensions[strings.ToLower(path.Ext(p))]
}

// pathSegments returns the non-empty, lowercased path segments.
func pathSegments(p string) []string {
	var out []string
	for _, seg := range strings.Split(strings.ToLower(p), "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func segmentHasKeyword(seg string, words map[string]bool) bool {
	if words[seg] {
		return true
	}
	for _, w := range wordSplit.Split(seg, -1) {
		if words[w] {
			return true
		}
	}
	return false
}
