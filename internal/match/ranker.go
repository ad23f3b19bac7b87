package match

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/vector"
)

// Ranker scores usable catalog items against a prompt and orders them best first.
// A Ranker is read-only after construction and safe for concurrent Rank calls.
type Ranker struct {
	scorer        *Scorer
	store         *vector.Store
	items         []models.CatalogItem
	filter        *UsageFilter
	minSimilarity float64
	logger        *slog.Logger
}

// NewRanker indexes the usable items of catalog.
// Items without an embedding or a positive duration never become candidates.
func NewRanker(scorer *Scorer, catalog []models.CatalogItem, filter *UsageFilter, minSimilarity float64, logger *slog.Logger) (*Ranker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(catalog))
	usable := make([]models.CatalogItem, 0, len(catalog))
	for _, item := range catalog {
		if _, dup := seen[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item id %q", ErrConfiguration, item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Usable() {
			usable = append(usable, item)
		}
	}

	store := vector.NewStore()
	if err := store.Load(usable); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if skipped := len(catalog) - len(usable); skipped > 0 {
		logger.Debug("skipped unusable catalog items", "count", skipped)
	}

	return &Ranker{
		scorer:        scorer,
		store:         store,
		items:         usable,
		filter:        filter,
		minSimilarity: minSimilarity,
		logger:        logger,
	}, nil
}

// Dimension returns the catalog embedding dimension, 0 for an empty catalog.
func (r *Ranker) Dimension() int {
	return r.store.Dimension()
}

// Rank returns up to limit candidates for prompt, ordered by final score then item ID.
// limit 0 means every candidate above the similarity floor. No match is an empty result.
func (r *Ranker) Rank(prompt models.Prompt, limit int) (models.MatchResult, error) {
	result := models.MatchResult{Prompt: prompt}

	sims, err := r.store.Score(prompt.Embedding)
	if err != nil {
		return result, fmt.Errorf("%w: prompt %d.%d: %w", ErrConfiguration, prompt.Arc, prompt.Sequence, err)
	}

	for _, item := range r.items {
		if r.filter.ShouldExclude(item) {
			continue
		}
		sim := sims[item.ID]
		if sim < r.minSimilarity {
			continue
		}
		result.Candidates = append(result.Candidates, models.Candidate{
			Item:  item,
			Score: r.scorer.Score(prompt, item, sim),
		})
	}

	SortCandidates(result.Candidates)
	result.Candidates = truncate(result.Candidates, limit)

	if best := result.Best(); best != nil {
		r.logger.Debug("ranked prompt",
			"arc", prompt.Arc,
			"sequence", prompt.Sequence,
			"candidates", len(result.Candidates),
			"best", best.Item.ID,
			"score", formatBreakdown(best.Score))
	}
	return result, nil
}

// SortCandidates orders candidates by final score descending, ties by item ID ascending.
func SortCandidates(c []models.Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Score.FinalScore != c[j].Score.FinalScore {
			return c[i].Score.FinalScore > c[j].Score.FinalScore
		}
		return c[i].Item.ID < c[j].Item.ID
	})
}

func truncate(c []models.Candidate, limit int) []models.Candidate {
	if limit > 0 && len(c) > limit {
		return c[:limit]
	}
	return c
}
