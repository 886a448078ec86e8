package backup

import "sort"

// applyRetention keeps the maxKeep newest bundles by creation time and
// returns the survivors along with how many were evicted. The incoming
// slice is not modified.
func applyRetention(bundles []Bundle, maxKeep int) ([]Bundle, int) {
	if maxKeep <= 0 || len(bundles) <= maxKeep {
		return bundles, 0
	}

	sorted := make([]Bundle, len(bundles))
	copy(sorted, bundles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	evicted := len(sorted) - maxKeep
	return sorted[:maxKeep], evicted
}
