// Package domain contains core concepts of the AfterHours feed.
// Posts are anonymous, short-lived and immutable except for their
// reaction counts.
package domain

import (
	"time"
	"unicode/utf8"
)

// MaxContentLength is the upper bound on post content, counted in runes
// after trimming.
const MaxContentLength = 200

// RetentionWindow is how long a post stays visible after creation.
// Older posts are excluded from every read, whether or not a purge has
// physically removed them yet.
const RetentionWindow = 24 * time.Hour

// AllowedEmojis is the fixed reaction alphabet. Reaction counts never
// contain a key outside this set.
var AllowedEmojis = []string{"💙", "🌙", "✨", "🫂", "💭"}

// Post represents one anonymous thought. Timestamp is assigned once,
// server-side, in milliseconds since epoch, and never revised.
type Post struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Category  string         `json:"category"`
	Timestamp int64          `json:"timestamp"`
	Reactions map[string]int `json:"reactions"`
}

// TotalReactions sums the post's reaction counts.
func (p Post) TotalReactions() int {
	total := 0
	for _, count := range p.Reactions {
		total += count
	}
	return total
}

// Expired reports whether the post has fallen out of the retention
// window at the given instant. The boundary itself counts as expired:
// reads keep strictly newer posts only.
func (p Post) Expired(now time.Time) bool {
	cutoff := now.Add(-RetentionWindow).UnixMilli()
	return p.Timestamp <= cutoff
}

// IsAllowedEmoji reports whether e belongs to the reaction alphabet.
func IsAllowedEmoji(e string) bool {
	for _, allowed := range AllowedEmojis {
		if e == allowed {
			return true
		}
	}
	return false
}

// NewReactionSet returns the full alphabet mapped to zero. Only the
// initial write carries explicit zeros, as a display convenience; any
// later mutation prunes entries that reach zero.
func NewReactionSet() map[string]int {
	reactions := make(map[string]int, len(AllowedEmojis))
	for _, e := range AllowedEmojis {
		reactions[e] = 0
	}
	return reactions
}

// ContentLength counts content in runes, not bytes, so multi-byte
// characters spend one unit each.
func ContentLength(content string) int {
	return utf8.RuneCountInString(content)
}
