package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/raphaelgruber/trackbank/internal/embedding"
	"github.com/raphaelgruber/trackbank/internal/match"
	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/playlist"
)

// PlanService matches a production document against the catalog.
type PlanService struct {
	store     Store
	embedder  embedding.Embedder
	engine    *match.Engine
	logger    *slog.Logger
	metrics   *metrics.Collector
	batchSize int
	now       func() time.Time
}

// NewPlanService creates a plan service. logger and mc may be nil.
func NewPlanService(store Store, embedder embedding.Embedder, logger *slog.Logger, mc *metrics.Collector) *PlanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanService{
		store:     store,
		embedder:  embedder,
		engine:    match.NewEngine(logger, mc),
		logger:    logger,
		metrics:   mc,
		batchSize: defaultEmbedBatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithBatchSize sets how many prompts are embedded per request.
func (s *PlanService) WithBatchSize(n int) *PlanService {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// PlanRequest is one planning run.
type PlanRequest struct {
	Doc     *models.ProductionDoc
	Options match.Options
	// Profile is recorded in the playlist for reference only.
	Profile string
}

// PlanResult carries the saved playlist plus the full engine output.
type PlanResult struct {
	Playlist *playlist.Playlist
	Result   *match.Result
}

// Plan embeds every prompt, runs the engine over the stored catalog and history,
// and builds a playlist with a fresh production ID.
func (s *PlanService) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if req.Doc == nil {
		return nil, errors.New("plan: no production document")
	}

	prompts := req.Doc.Prompts()
	if len(prompts) == 0 {
		return nil, fmt.Errorf("plan: %w: document has no prompts", match.ErrConfiguration)
	}

	catalog, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan: load catalog: %w", err)
	}
	history, err := s.store.ListProductions(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan: load history: %w", err)
	}
	s.logger.Debug("catalog loaded", "items", len(catalog), "productions", len(history))

	texts := make([]string, len(prompts))
	for i, p := range prompts {
		texts[i] = p.EmbeddingText(req.Doc.Theme)
	}
	vectors, err := embedAll(ctx, s.embedder, s.metrics, texts, s.batchSize, nil)
	if err != nil {
		return nil, fmt.Errorf("plan: embed prompts: %w", err)
	}
	for i := range prompts {
		prompts[i].Embedding = vectors[i]
	}

	res, err := s.engine.Run(ctx, match.Input{Catalog: catalog, History: history, Prompts: prompts}, req.Options)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	pl := playlist.Build(playlist.Meta{
		ProductionID:  uuid.NewString(),
		Title:         req.Doc.Title,
		Theme:         req.Doc.Theme,
		Profile:       req.Profile,
		TargetMinutes: int(req.Options.TargetSeconds / 60),
		CreatedAt:     s.now(),
	}, res, req.Options.TargetSeconds)

	return &PlanResult{Playlist: pl, Result: res}, nil
}
