package model

import (
	"strings"
	"time"
)

// Mode controls how aggressively URLs and content are filtered.
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeRelaxed Mode = "relaxed"
)

// ParseMode converts a config or flag value to a Mode. Anything other than
// "relaxed" is treated as strict.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeRelaxed)) {
		return ModeRelaxed
	}
	return ModeStrict
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeStrict || m == ModeRelaxed
}

// NormalizeQuery lowercases a query and collapses internal whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// QuerySlug turns a query into a tag-safe slug ("Image Generation" ->
// "image-generation").
func QuerySlug(q string) string {
	return strings.ReplaceAll(NormalizeQuery(q), " ", "-")
}

// CacheEntry holds the resolved tools for a normalized query.
type CacheEntry struct {
	Key      string    `json:"key"`
	Tools    []Tool    `json:"tools"`
	StoredAt time.Time `json:"stored_at"`
}

// Expired reports whether the entry is older than ttl at now.
func (e CacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) >= ttl
}
