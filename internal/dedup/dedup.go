// Package dedup collapses article collections that span multiple issues so
// that each source URL appears at most once, keeping the entry from the most
// recent issue.
package dedup

import "time"

// CollapseByURL performs a single stable pass over items. The first entry
// seen for a URL claims that URL's slot in the output; a later entry with a
// strictly more recent issue date replaces it in place, so ties keep the
// first-seen entry and output order is deterministic for a given input order.
// Entries with an empty URL are passed through untouched.
func CollapseByURL[T any](items []T, urlOf func(T) string, dateOf func(T) time.Time) []T {
	out := make([]T, 0, len(items))
	slots := make(map[string]int, len(items))

	for _, item := range items {
		key := urlOf(item)
		if key == "" {
			out = append(out, item)
			continue
		}

		idx, seen := slots[key]
		if !seen {
			slots[key] = len(out)
			out = append(out, item)
			continue
		}

		if dateOf(item).After(dateOf(out[idx])) {
			out[idx] = item
		}
	}

	return out
}
