package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/raphaelgruber/trackbank/internal/embedding"
	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/parser"
)

// Manifest is an item import file. Items carry the catalog fields directly;
// SourceProduction fills in items that leave it empty.
type Manifest struct {
	SourceProduction string               `yaml:"source_production"`
	Items            []models.CatalogItem `yaml:"items"`
}

// ReadManifest loads a YAML manifest from disk.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// ImportOptions configures a catalog import.
type ImportOptions struct {
	// Reembed regenerates embeddings even for items that already carry one.
	Reembed bool
	// DryRun validates and embeds but does not write.
	DryRun bool
	// Progress is called after each embedding batch. Optional.
	Progress func(done, total int)
}

// ImportResult summarizes an import.
type ImportResult struct {
	ItemsImported int
	ItemsEmbedded int
	ItemsSkipped  int
	Errors        []string
}

// CatalogService imports items into the store and reports catalog statistics.
type CatalogService struct {
	store     Store
	embedder  embedding.Embedder
	logger    *slog.Logger
	metrics   *metrics.Collector
	batchSize int
}

// NewCatalogService creates a catalog service. embedder may be nil for read-only use.
func NewCatalogService(store Store, embedder embedding.Embedder, logger *slog.Logger, mc *metrics.Collector, batchSize int) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &CatalogService{store: store, embedder: embedder, logger: logger, metrics: mc, batchSize: batchSize}
}

// Import normalizes manifest items, embeds those that need it and upserts them.
// Invalid items are skipped and reported in ImportResult.Errors.
func (s *CatalogService) Import(ctx context.Context, m *Manifest, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	var (
		items   []models.CatalogItem
		pending []int
		seen    = make(map[string]struct{}, len(m.Items))
	)
	for _, item := range m.Items {
		item, err := s.normalize(item, m.SourceProduction)
		if err != nil {
			result.ItemsSkipped++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if _, dup := seen[item.ID]; dup {
			result.ItemsSkipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: duplicate id in manifest", item.ID))
			continue
		}
		seen[item.ID] = struct{}{}

		if opts.Reembed || !s.hasValidEmbedding(item) {
			pending = append(pending, len(items))
		}
		items = append(items, item)
	}

	if len(pending) > 0 {
		if s.embedder == nil {
			return nil, fmt.Errorf("import: %d items need embeddings but no embedder is configured", len(pending))
		}
		texts := make([]string, len(pending))
		for i, idx := range pending {
			texts[i] = items[idx].EmbeddingText()
		}
		vectors, err := embedAll(ctx, s.embedder, s.metrics, texts, s.batchSize, opts.Progress)
		if err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
		for i, idx := range pending {
			items[idx].Embedding = vectors[i]
		}
		result.ItemsEmbedded = len(pending)
	}

	if !opts.DryRun && len(items) > 0 {
		if err := s.store.UpsertItems(ctx, items); err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
	}
	result.ItemsImported = len(items)

	s.logger.Info("catalog import finished",
		"imported", result.ItemsImported,
		"embedded", result.ItemsEmbedded,
		"skipped", result.ItemsSkipped,
		"dry_run", opts.DryRun)
	return result, nil
}

// normalize fills the ID and section from the filename and rejects unusable items.
func (s *CatalogService) normalize(item models.CatalogItem, source string) (models.CatalogItem, error) {
	if item.ID == "" && item.FilePath != "" {
		item.ID = filepath.Base(item.FilePath)
	}
	if item.ID == "" {
		return item, fmt.Errorf("item without id or file_path")
	}
	if item.Duration <= 0 {
		return item, fmt.Errorf("%s: duration must be positive", item.ID)
	}
	if item.Section == 0 {
		if parts, err := parser.ParseFilename(item.ID); err == nil {
			item.Section = parts.Arc
		} else {
			s.logger.Debug("no section from filename", "id", item.ID, "error", err)
		}
	}
	if item.SourceProduction == "" {
		item.SourceProduction = source
	}
	return item, nil
}

func (s *CatalogService) hasValidEmbedding(item models.CatalogItem) bool {
	if !item.HasEmbedding() {
		return false
	}
	return s.embedder == nil || len(item.Embedding) == s.embedder.Dimension()
}

// CatalogStats summarizes the stored catalog.
type CatalogStats struct {
	TotalItems    int
	Embedded      int
	UsedItems     int
	UnusedItems   int
	TotalSeconds  float64
	Productions   int
	SectionCounts map[int]int
	MostUsed      []models.CatalogItem
	Unused        []models.CatalogItem
}

// Stats reports catalog totals plus the limit most used and limit unused items.
func (s *CatalogService) Stats(ctx context.Context, limit int) (*CatalogStats, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	history, err := s.store.ListProductions(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	st := &CatalogStats{
		TotalItems:    len(items),
		Productions:   len(history),
		SectionCounts: make(map[int]int),
	}
	var used, unused []models.CatalogItem
	for _, it := range items {
		st.TotalSeconds += it.Duration
		st.SectionCounts[it.Section]++
		if it.HasEmbedding() {
			st.Embedded++
		}
		if it.TimesUsed > 0 {
			used = append(used, it)
		} else {
			unused = append(unused, it)
		}
	}
	st.UsedItems = len(used)
	st.UnusedItems = len(unused)

	sort.SliceStable(used, func(i, j int) bool {
		if used[i].TimesUsed != used[j].TimesUsed {
			return used[i].TimesUsed > used[j].TimesUsed
		}
		return used[i].ID < used[j].ID
	})
	st.MostUsed = head(used, limit)
	st.Unused = head(unused, limit)
	return st, nil
}

func head(items []models.CatalogItem, n int) []models.CatalogItem {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
