package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/trackbank/internal/embedding"
	"github.com/raphaelgruber/trackbank/internal/match"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/parser"
)

// SearchService answers ad-hoc catalog queries with the same scoring as planning.
type SearchService struct {
	store    Store
	embedder embedding.Embedder
	logger   *slog.Logger
}

// NewSearchService creates a search service. logger may be nil.
func NewSearchService(store Store, embedder embedding.Embedder, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{store: store, embedder: embedder, logger: logger}
}

// SearchOptions configures a search.
type SearchOptions struct {
	Query string
	// Arc scores section affinity against this arc. 0 leaves it unset.
	Arc           int
	Limit         int
	MinSimilarity float64
	Scoring       match.ScoringConfig
	// Usage filters, as in planning.
	SkipRecent int
	MaxUsage   *int
}

// Search ranks catalog items against free text. No match is an empty result.
func (s *SearchService) Search(ctx context.Context, opts SearchOptions) ([]models.Candidate, error) {
	if opts.Query == "" {
		return nil, errors.New("search: empty query")
	}

	scorer, err := match.NewScorer(opts.Scoring)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	var history []models.Production
	if opts.SkipRecent > 0 {
		if history, err = s.store.ListProductions(ctx); err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}

	ranker, err := match.NewRanker(scorer, items, match.NewUsageFilter(history, opts.SkipRecent, opts.MaxUsage), opts.MinSimilarity, s.logger)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	prompt := parser.ParsePrompt(opts.Arc, opts.Query)
	prompt.Embedding, err = s.embedder.Embed(ctx, prompt.EmbeddingText(""))
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	res, err := ranker.Rank(prompt, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return res.Candidates, nil
}
