package match

import (
	"fmt"
	"sort"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// idleCyclesBeforeShortfall is how many full passes over an arc's prompts may
// select nothing before the arc is closed as short.
const idleCyclesBeforeShortfall = 2

// Allocate fills each arc to an even share of targetSeconds from the ranked candidates.
//
// Arcs are processed in ascending order and prompts in sequence order, cycling back to
// the first prompt until the arc reaches its share. Each item is used at most once per
// run. An arc closes once its accumulated duration reaches the share (overshooting by
// at most one item) or when it runs out of unique candidates, which is recorded as a
// shortfall.
func Allocate(results []models.MatchResult, targetSeconds float64) (models.Allocation, error) {
	arcs := groupByArc(results)
	if len(arcs) == 0 {
		return models.Allocation{}, fmt.Errorf("%w: no arcs to allocate", ErrConfiguration)
	}
	if targetSeconds <= 0 {
		return models.Allocation{}, fmt.Errorf("%w: target duration must be positive", ErrConfiguration)
	}

	perArc := targetSeconds / float64(len(arcs))
	used := make(map[string]struct{})
	var out models.Allocation

	for _, group := range arcs {
		alloc := models.ArcAllocation{Arc: group.arc, TargetSeconds: perArc}
		cursors := make([]int, len(group.results))
		idle := 0

		for alloc.AccumulatedSeconds < perArc && idle < idleCyclesBeforeShortfall {
			picked := false
			for i, res := range group.results {
				if alloc.AccumulatedSeconds >= perArc {
					break
				}
				c, ok := nextUnused(res.Candidates, &cursors[i], used)
				if !ok {
					continue
				}
				used[c.Item.ID] = struct{}{}
				alloc.Selections = append(alloc.Selections, models.Selection{Prompt: res.Prompt, Candidate: c})
				alloc.AccumulatedSeconds += c.Item.Duration
				picked = true
			}
			if picked {
				idle = 0
			} else {
				idle++
			}
		}

		if alloc.AccumulatedSeconds < perArc {
			out.Shortfalls = append(out.Shortfalls, models.Shortfall{
				Arc:          group.arc,
				SecondsShort: perArc - alloc.AccumulatedSeconds,
			})
		}
		out.Arcs = append(out.Arcs, alloc)
	}
	return out, nil
}

// nextUnused advances cursor past candidates already used in this run.
func nextUnused(c []models.Candidate, cursor *int, used map[string]struct{}) (models.Candidate, bool) {
	for *cursor < len(c) {
		cand := c[*cursor]
		*cursor++
		if _, taken := used[cand.Item.ID]; !taken {
			return cand, true
		}
	}
	return models.Candidate{}, false
}

type arcGroup struct {
	arc     int
	results []models.MatchResult
}

func groupByArc(results []models.MatchResult) []arcGroup {
	byArc := make(map[int][]models.MatchResult)
	for _, r := range results {
		byArc[r.Prompt.Arc] = append(byArc[r.Prompt.Arc], r)
	}

	groups := make([]arcGroup, 0, len(byArc))
	for arc, rs := range byArc {
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].Prompt.Sequence < rs[j].Prompt.Sequence
		})
		groups = append(groups, arcGroup{arc: arc, results: rs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].arc < groups[j].arc })
	return groups
}
