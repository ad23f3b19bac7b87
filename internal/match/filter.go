package match

import (
	"sort"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// UsageFilter excludes items that were used recently or too often.
// Both predicates are off when unset.
type UsageFilter struct {
	recent   map[string]struct{}
	maxUsage *int
}

// NewUsageFilter builds a filter from production history.
// skipRecent N excludes items last used in any of the N most recent productions.
func NewUsageFilter(history []models.Production, skipRecent int, maxUsage *int) *UsageFilter {
	f := &UsageFilter{maxUsage: maxUsage}
	if ids := RecentProductionIDs(history, skipRecent); len(ids) > 0 {
		f.recent = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			f.recent[id] = struct{}{}
		}
	}
	return f
}

// ShouldExclude reports whether item must not be considered for this run.
func (f *UsageFilter) ShouldExclude(item models.CatalogItem) bool {
	if f == nil {
		return false
	}
	if f.maxUsage != nil && item.TimesUsed > *f.maxUsage {
		return true
	}
	if item.LastUsedProductionID != nil && f.recent != nil {
		if _, ok := f.recent[*item.LastUsedProductionID]; ok {
			return true
		}
	}
	return false
}

// RecentProductionIDs returns the IDs of the n most recent productions.
// Productions are ordered by creation time, then ID.
func RecentProductionIDs(history []models.Production, n int) []string {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	sorted := make([]models.Production, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	ids := make([]string, 0, n)
	for _, p := range sorted[len(sorted)-n:] {
		ids = append(ids, p.ID)
	}
	return ids
}
