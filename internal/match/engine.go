package match

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/vector"
)

// Input is everything one engine run reads. The engine never mutates it.
type Input struct {
	Catalog []models.CatalogItem
	History []models.Production
	Prompts []models.Prompt
}

// Result is the outcome of one engine run.
type Result struct {
	// Matches holds one entry per prompt in arc/sequence order, truncated to TopK.
	Matches    []models.MatchResult
	Allocation models.Allocation
	Gaps       models.GapReport
}

// Engine runs ranking, allocation and gap analysis for a production.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewEngine creates an engine. Both arguments may be nil.
func NewEngine(logger *slog.Logger, mc *metrics.Collector) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, metrics: mc}
}

// Run validates opts and input, ranks every prompt in parallel, then allocates
// durations sequentially and analyzes gaps.
func (e *Engine) Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(in.Prompts) == 0 {
		return nil, fmt.Errorf("%w: no prompts", ErrConfiguration)
	}

	scorer, err := NewScorer(opts.Scoring)
	if err != nil {
		return nil, err
	}
	filter := NewUsageFilter(in.History, opts.SkipRecent, opts.MaxUsage)
	ranker, err := NewRanker(scorer, in.Catalog, filter, opts.MinSimilarity, e.logger)
	if err != nil {
		return nil, err
	}

	prompts := make([]models.Prompt, len(in.Prompts))
	copy(prompts, in.Prompts)
	models.SortPrompts(prompts)

	if err := checkPrompts(prompts, ranker.Dimension()); err != nil {
		return nil, err
	}

	ranked, err := e.rankAll(ctx, ranker, prompts, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	alloc, err := Allocate(ranked, opts.TargetSeconds)
	e.metrics.Since(metrics.OpAllocate, start)
	if err != nil {
		return nil, err
	}

	matches := make([]models.MatchResult, len(ranked))
	for i, r := range ranked {
		matches[i] = models.MatchResult{Prompt: r.Prompt, Candidates: truncate(r.Candidates, opts.TopK)}
	}

	result := &Result{
		Matches:    matches,
		Allocation: alloc,
		Gaps:       AnalyzeGaps(matches, opts.gapThreshold()),
	}

	e.logger.Info("allocation complete",
		"prompts", len(prompts),
		"items", alloc.ItemCount(),
		"seconds", int(alloc.TotalSeconds()),
		"target_seconds", int(opts.TargetSeconds),
		"shortfalls", len(alloc.Shortfalls))
	for _, s := range alloc.Shortfalls {
		e.logger.Warn("arc short of target", "arc", s.Arc, "seconds_short", int(s.SecondsShort))
	}
	return result, nil
}

// rankAll ranks prompts concurrently; each worker writes only its own slot.
func (e *Engine) rankAll(ctx context.Context, ranker *Ranker, prompts []models.Prompt, opts Options) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, len(prompts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())

	for i, p := range prompts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res, err := ranker.Rank(p, opts.AllocationDepth)
			e.metrics.RecordBatch(metrics.OpRank, time.Since(start), len(res.Candidates))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rank prompts: %w", err)
	}
	return results, nil
}

// checkPrompts rejects prompts that cannot be scored against a catalog of dimension dim.
func checkPrompts(prompts []models.Prompt, dim int) error {
	for _, p := range prompts {
		if len(p.Embedding) == 0 {
			return fmt.Errorf("%w: prompt %d.%d has no embedding", ErrConfiguration, p.Arc, p.Sequence)
		}
		if dim > 0 && len(p.Embedding) != dim {
			return fmt.Errorf("%w: prompt %d.%d: %w: got %d, want %d",
				ErrConfiguration, p.Arc, p.Sequence, vector.ErrDimensionMismatch, len(p.Embedding), dim)
		}
	}
	return nil
}
