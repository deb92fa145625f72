// Package moderation gates post content against a static blocklist.
// Matching is case-insensitive substring containment, nothing smarter: a
// blocked term embedded in a longer benign word still matches. That
// false-positive risk is a known property of the list, not a bug here.
package moderation

import (
	"log/slog"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// FailMode decides what an unusable term list means. There is no silent
// default; the caller must choose.
type FailMode int

const (
	// FailClosed blocks everything while no term list is available.
	FailClosed FailMode = iota
	// FailOpen admits everything while no term list is available.
	FailOpen
)

// ParseFailMode maps the configuration string onto a FailMode.
func ParseFailMode(s string) (FailMode, bool) {
	switch strings.ToLower(s) {
	case "closed":
		return FailClosed, true
	case "open":
		return FailOpen, true
	}
	return FailClosed, false
}

type Moderator struct {
	matcher  *goahocorasick.Machine
	failMode FailMode
}

// NewModerator builds the Aho-Corasick automaton over the lower-cased
// term list. An empty list yields a moderator that answers purely from
// its fail mode.
func NewModerator(terms []string, failMode FailMode, log *slog.Logger) (Moderator, error) {
	if len(terms) == 0 {
		log.Warn("Moderation term list is empty",
			"failMode", failModeName(failMode))
		return Moderator{failMode: failMode}, nil
	}

	patterns := make([][]rune, 0, len(terms))
	for _, term := range terms {
		patterns = append(patterns, []rune(strings.ToLower(term)))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	log.Info("Moderation blocklist loaded", "terms", len(terms))
	return Moderator{matcher: m, failMode: failMode}, nil
}

// ContainsBlockedContent reports whether any blocked term occurs inside
// text, case-insensitively. Pure function over the static term list.
func (m Moderator) ContainsBlockedContent(text string) bool {
	if m.matcher == nil {
		return m.failMode == FailClosed
	}
	lowered := []rune(strings.ToLower(text))
	hits := m.matcher.MultiPatternSearch(lowered, true)
	return len(hits) > 0
}

func failModeName(mode FailMode) string {
	if mode == FailOpen {
		return "open"
	}
	return "closed"
}
