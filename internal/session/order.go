package session

import (
	"math/rand/v2"
	"sort"

	"codeberg.org/snonux/cliprecall/internal/segment"
)

// arrange returns the segment ids in the order the session visits them
func arrange(entries []segment.Entry, order Order, rng *rand.Rand) []string {
	sorted := make([]segment.Entry, len(entries))
	copy(sorted, entries)

	// Directory listing order is unspecified, so sort first. This also
	// makes a seeded shuffle reproducible.
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.Before(sorted[j].ModTime)
		}
		return sorted[i].ID < sorted[j].ID
	})

	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}

	if order == Random {
		shuffle(ids, rng)
	}
	return ids
}

// shuffle is a Fisher-Yates shuffle
func shuffle(ids []string, rng *rand.Rand) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// removeAt returns a copy of ids without the element at i
func removeAt(ids []string, i int) []string {
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}
