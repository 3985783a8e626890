package tracker

import (
	"slices"
	"strings"

	"pricepulse-backend/internal/store"
)

// LatestPerStore reduces a price history to the most recent observation of every store.
//
// The output holds exactly one observation per distinct store. When two observations of a store
// share the latest fetched_at, the one appearing first in `observations` is kept. The output is
// ordered by fetched_at descending, then by store, and is never nil.
func LatestPerStore(observations []store.Observation) []store.Observation {
	latestIdx := make(map[string]int)
	for i, o := range observations {
		current, seen := latestIdx[o.Store]
		if !seen || o.FetchedAt.After(observations[current].FetchedAt) {
			latestIdx[o.Store] = i
		}
	}

	out := make([]store.Observation, 0, len(latestIdx))
	for _, idx := range latestIdx {
		out = append(out, observations[idx])
	}
	slices.SortFunc(out, func(a, b store.Observation) int {
		if c := b.FetchedAt.Compare(a.FetchedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Store, b.Store)
	})
	return out
}
