package ranking

import (
	"sort"

	"github.com/studiowebux/perfscope/internal/types"
)

const (
	// DefaultThresholdMs is the duration a resource must exceed to be slow
	DefaultThresholdMs = 40
	// DefaultLimit is the number of slow resources kept per ranking
	DefaultLimit = 5
)

// Rank returns the slowest resources of one kind.
// ajaxOnly selects xmlhttprequest/fetch resources, otherwise everything else.
// Only durations strictly above threshold are kept, slowest first, at most limit.
func Rank(entries []types.ResourceEntry, ajaxOnly bool, threshold float64, limit int) []types.ResourceEntry {
	slow := make([]types.ResourceEntry, 0)
	for _, e := range entries {
		if e.IsAjax() != ajaxOnly {
			continue
		}
		if e.Duration > threshold {
			slow = append(slow, e)
		}
	}

	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].Duration > slow[j].Duration
	})

	if limit >= 0 && len(slow) > limit {
		slow = slow[:limit]
	}
	return slow
}

// Collect builds the static and ajax rankings
func Collect(entries []types.ResourceEntry, threshold float64, limit int) types.SlowResources {
	return types.SlowResources{
		SlowStatic: Rank(entries, false, threshold, limit),
		SlowAjax:   Rank(entries, true, threshold, limit),
	}
}
