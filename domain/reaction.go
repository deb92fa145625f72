package domain

// ApplyReaction applies the toggle-and-switch transition to a post's
// counts, given the user's previous emoji ("" when none):
//
//   - no previous reaction: the requested emoji is added
//   - same emoji again: the reaction is removed (toggle off)
//   - different emoji: the old one is removed, the new one added
//
// Counts never go below zero and an entry that reaches zero is deleted
// from the map, so "zero" always means "key absent" after a mutation.
// The returned map is the same map, mutated in place (a nil map is
// replaced).
func ApplyReaction(counts map[string]int, emoji, previous string) map[string]int {
	if counts == nil {
		counts = make(map[string]int)
	}

	if previous != "" && previous != emoji {
		decrement(counts, previous)
	}

	if previous == emoji {
		decrement(counts, emoji)
	} else {
		counts[emoji]++
	}

	// A mutation also sweeps out the explicit zeros the initial write may
	// have carried: once a post has been reacted to, zero means absent.
	for e, c := range counts {
		if c <= 0 {
			delete(counts, e)
		}
	}
	return counts
}

func decrement(counts map[string]int, emoji string) {
	if counts[emoji] <= 1 {
		delete(counts, emoji)
		return
	}
	counts[emoji]--
}
