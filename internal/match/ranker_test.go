package match

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/trackbank/internal/models"
)

func newTestRanker(t *testing.T, catalog []models.CatalogItem, filter *UsageFilter, minSim float64) *Ranker {
	t.Helper()
	r, err := NewRanker(newTestScorer(t, nil), catalog, filter, minSim, nil)
	require.NoError(t, err)
	return r
}

func TestRankOrdersByScoreThenID(t *testing.T) {
	catalog := []models.CatalogItem{
		testItem("b", axis(0), 200),
		testItem("a", axis(0), 200),
		testItem("close", tilted(0, 0.9), 200),
		testItem("far", axis(1), 200),
	}
	r := newTestRanker(t, catalog, nil, 0.6)

	res, err := r.Rank(testPrompt(1, 1, axis(0)), 0)
	require.NoError(t, err)

	ids := make([]string, len(res.Candidates))
	for i, c := range res.Candidates {
		ids[i] = c.Item.ID
	}
	assert.Equal(t, []string{"a", "b", "close"}, ids)
}

func TestRankTruncatesToLimit(t *testing.T) {
	r := newTestRanker(t, arcCatalog(1, 10, 200), nil, 0.6)

	res, err := r.Rank(testPrompt(1, 1, axis(0)), 5)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 5)

	res, err = r.Rank(testPrompt(1, 1, axis(0)), 0)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 10)
}

func TestRankSimilarityFloor(t *testing.T) {
	catalog := []models.CatalogItem{
		testItem("strong", axis(0), 200),
		testItem("weak", tilted(0, 0.55), 200),
	}
	// Even a perfect section, tempo and usage fit cannot lift an item over the floor.
	catalog[1].Section = 1
	r := newTestRanker(t, catalog, nil, 0.6)

	res, err := r.Rank(testPrompt(1, 1, axis(0)), 0)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "strong", res.Candidates[0].Item.ID)
}

func TestRankSkipsUnusableItems(t *testing.T) {
	catalog := []models.CatalogItem{
		testItem("ok", axis(0), 200),
		testItem("no-duration", axis(0), 0),
		{ID: "no-embedding", Duration: 200},
	}
	r := newTestRanker(t, catalog, nil, 0.6)

	res, err := r.Rank(testPrompt(1, 1, axis(0)), 0)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "ok", res.Candidates[0].Item.ID)
}

func TestRankAppliesUsageFilter(t *testing.T) {
	catalog := []models.CatalogItem{
		testItem("fresh", axis(0), 200),
		testItem("worn", axis(0), 200),
	}
	catalog[1].TimesUsed = 5
	r := newTestRanker(t, catalog, NewUsageFilter(nil, 0, intPtr(2)), 0.6)

	res, err := r.Rank(testPrompt(1, 1, axis(0)), 0)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "fresh", res.Candidates[0].Item.ID)
}

func TestRankNoMatchIsEmpty(t *testing.T) {
	r := newTestRanker(t, arcCatalog(2, 3, 200), nil, 0.6)

	res, err := r.Rank(testPrompt(1, 1, axis(0)), 5)
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Nil(t, res.Best())
}

func TestNewRankerRejectsMixedDimensions(t *testing.T) {
	catalog := []models.CatalogItem{
		testItem("a", axis(0), 200),
		testItem("b", []float32{1, 0}, 200),
	}
	_, err := NewRanker(newTestScorer(t, nil), catalog, nil, 0.6, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNewRankerRejectsDuplicateIDs(t *testing.T) {
	catalog := []models.CatalogItem{
		testItem("a", axis(0), 200),
		testItem("a", axis(1), 200),
	}
	_, err := NewRanker(newTestScorer(t, nil), catalog, nil, 0.6, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRankSortInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	keys := []string{"C major", "Am", "G", "D minor"}

	catalog := make([]models.CatalogItem, 0, 200)
	for i := 0; i < 200; i++ {
		emb := make([]float32, testDim)
		for d := range emb {
			emb[d] = rng.Float32()
		}
		item := testItem(fmt.Sprintf("item-%03d", i), emb, 120+rng.Float64()*200)
		item.Section = rng.Intn(4) + 1
		item.Tempo = models.Float64Ptr(60 + rng.Float64()*80)
		item.Key = models.StringPtr(keys[rng.Intn(len(keys))])
		item.TimesUsed = rng.Intn(6)
		catalog = append(catalog, item)
	}
	r := newTestRanker(t, catalog, nil, 0.6)

	for i := 0; i < 20; i++ {
		q := make([]float32, testDim)
		for d := range q {
			q[d] = rng.Float32()
		}
		p := testPrompt(rng.Intn(4)+1, 1, q)
		p.ExpectedTempo = models.Float64Ptr(95)

		res, err := r.Rank(p, 0)
		require.NoError(t, err)
		for j := 1; j < len(res.Candidates); j++ {
			prev, cur := res.Candidates[j-1], res.Candidates[j]
			require.GreaterOrEqual(t, prev.Score.FinalScore, cur.Score.FinalScore)
			if prev.Score.FinalScore == cur.Score.FinalScore {
				require.Less(t, prev.Item.ID, cur.Item.ID)
			}
			require.GreaterOrEqual(t, cur.Score.Similarity, 0.6)
		}
	}
}
