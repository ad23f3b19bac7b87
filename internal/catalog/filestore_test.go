package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/trackbank/internal/metrics"
	"github.com/raphaelgruber/trackbank/internal/models"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data", "catalog.yaml"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestEmptyStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	prods, err := s.ListProductions(ctx)
	require.NoError(t, err)
	assert.Empty(t, prods)
}

func TestUpsertRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	items := []models.CatalogItem{
		{ID: "2_1_1a.mp3", Embedding: []float32{0.1, 0.2}, Section: 2, Tempo: models.Float64Ptr(88), Key: models.StringPtr("D minor"), Duration: 190},
		{ID: "1_1_1a.mp3", Embedding: []float32{0.3, 0.4}, Section: 1, Duration: 200, VibeTags: []string{"warm"}},
	}
	require.NoError(t, s.UpsertItems(ctx, items))

	got, err := s.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1_1_1a.mp3", got[0].ID)
	assert.Equal(t, []float32{0.3, 0.4}, got[0].Embedding)
	assert.Equal(t, []string{"warm"}, got[0].VibeTags)
	require.NotNil(t, got[1].Tempo)
	assert.Equal(t, 88.0, *got[1].Tempo)
	assert.Equal(t, "D minor", *got[1].Key)
	assert.False(t, got[1].CreatedAt.IsZero())
}

func TestUpsertPreservesUsage(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	item := models.CatalogItem{ID: "a.mp3", Embedding: []float32{1}, Duration: 100}
	require.NoError(t, s.UpsertItems(ctx, []models.CatalogItem{item}))
	require.NoError(t, s.CommitProduction(ctx, models.Production{ID: "p1"}, []string{"a.mp3"}, time.Now().UTC()))

	item.Duration = 120
	item.TimesUsed = 99
	require.NoError(t, s.UpsertItems(ctx, []models.CatalogItem{item}))

	got, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got[0].Duration)
	assert.Equal(t, 1, got[0].TimesUsed)
	require.NotNil(t, got[0].LastUsedProductionID)
	assert.Equal(t, "p1", *got[0].LastUsedProductionID)
}

func TestCommitProduction(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpsertItems(ctx, []models.CatalogItem{
		{ID: "a.mp3", Embedding: []float32{1}, Duration: 1},
		{ID: "b.mp3", Embedding: []float32{1}, Duration: 1},
	}))
	require.NoError(t, s.CommitProduction(ctx, models.Production{ID: "p2", Number: 2, CreatedAt: base.Add(time.Hour)}, []string{"b.mp3"}, base.Add(time.Hour)))
	require.NoError(t, s.CommitProduction(ctx, models.Production{ID: "p1", Number: 1, CreatedAt: base}, []string{"a.mp3", "b.mp3"}, base))

	prods, err := s.ListProductions(ctx)
	require.NoError(t, err)
	require.Len(t, prods, 2)
	assert.Equal(t, "p1", prods[0].ID)
	assert.Equal(t, "p2", prods[1].ID)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].TimesUsed)
	assert.Equal(t, 2, items[1].TimesUsed)
	require.NotNil(t, items[1].LastUsedProductionID)
	assert.Equal(t, "p1", *items[1].LastUsedProductionID)
}

func TestCommitProductionTwice(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItems(ctx, []models.CatalogItem{{ID: "a.mp3", Embedding: []float32{1}, Duration: 1}}))
	require.NoError(t, s.CommitProduction(ctx, models.Production{ID: "p1"}, []string{"a.mp3"}, time.Now()))

	err := s.CommitProduction(ctx, models.Production{ID: "p1"}, []string{"a.mp3"}, time.Now())
	require.ErrorIs(t, err, models.ErrProductionExists)

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].TimesUsed)
}

func TestCommitProductionUnknownItemWritesNothing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertItems(ctx, []models.CatalogItem{{ID: "a.mp3", Embedding: []float32{1}, Duration: 1}}))
	err := s.CommitProduction(ctx, models.Production{ID: "p1"}, []string{"a.mp3", "ghost.mp3"}, time.Now())
	require.ErrorIs(t, err, models.ErrUnknownItem)
	assert.Contains(t, err.Error(), "ghost.mp3")

	items, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, items[0].TimesUsed)
	prods, err := s.ListProductions(ctx)
	require.NoError(t, err)
	assert.Empty(t, prods)

	// The same production ID is free for a corrected retry.
	require.NoError(t, s.CommitProduction(ctx, models.Production{ID: "p1"}, []string{"a.mp3"}, time.Now()))
	items, err = s.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].TimesUsed)
}

func TestConcurrentCommits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	ctx := context.Background()

	seed, err := NewFileStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, seed.UpsertItems(ctx, []models.CatalogItem{{ID: "a.mp3", Embedding: []float32{1}, Duration: 1}}))
	require.NoError(t, seed.Close(ctx))

	const writers = 8
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Separate handles behave like separate processes.
			s, err := NewFileStore(path, nil)
			if !assert.NoError(t, err) {
				return
			}
			defer s.Close(ctx)
			prod := models.Production{ID: fmt.Sprintf("p%d", i)}
			assert.NoError(t, s.CommitProduction(ctx, prod, []string{"a.mp3"}, time.Now()))
		}(i)
	}
	wg.Wait()

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	got, err := s.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers, got[0].TimesUsed)
	prods, err := s.ListProductions(ctx)
	require.NoError(t, err)
	assert.Len(t, prods, writers)
}

func TestStoreMetrics(t *testing.T) {
	mc := metrics.NewCollector()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "catalog.yaml"), mc)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.UpsertItems(ctx, nil))
	_, err = s.ListItems(ctx)
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, op := range mc.Snapshot().Operations {
		counts[op.Name] = op.Count
	}
	assert.Equal(t, int64(1), counts[metrics.OpStoreWrite])
	assert.Equal(t, int64(1), counts[metrics.OpStoreRead])
}
