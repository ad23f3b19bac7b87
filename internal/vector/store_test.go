package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/trackbank/internal/models"
)

func item(id string, emb ...float32) models.CatalogItem {
	return models.CatalogItem{ID: id, Embedding: emb, Duration: 200}
}

func TestStoreScore(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Load([]models.CatalogItem{
		item("same", 1, 0, 0),
		item("orthogonal", 0, 1, 0),
		item("opposite", -1, 0, 0),
		item("zero", 0, 0, 0),
		{ID: "no-embedding", Duration: 120},
	}))

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3, s.Dimension())

	scores, err := s.Score([]float32{2, 0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, scores["same"], 1e-9)
	assert.InDelta(t, 0.0, scores["orthogonal"], 1e-9)
	assert.InDelta(t, -1.0, scores["opposite"], 1e-9)
	assert.Equal(t, 0.0, scores["zero"])
	assert.NotContains(t, scores, "no-embedding")
}

func TestStoreLoadDimensionMismatch(t *testing.T) {
	s := NewStore()
	err := s.Load([]models.CatalogItem{
		item("a", 1, 0, 0),
		item("b", 1, 0),
	})
	require.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "got 2, want 3")
}

func TestStoreScoreQueryDimensionMismatch(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Load([]models.CatalogItem{item("a", 1, 0, 0)}))

	_, err := s.Score([]float32{1, 0})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestStoreEmpty(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Load(nil))

	scores, err := s.Score([]float32{1, 2})
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestStoreZeroQuery(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Load([]models.CatalogItem{item("a", 1, 1)}))

	scores, err := s.Score([]float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, scores["a"])
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
