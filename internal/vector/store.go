// Package vector holds catalog embeddings in memory and scores queries against them.
package vector

import (
	"errors"
	"fmt"
	"math"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// ErrDimensionMismatch is returned when embeddings of different lengths meet.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// Store is an in-memory cosine index over catalog item embeddings.
// A loaded Store is read-only and safe for concurrent Score calls.
type Store struct {
	dim   int
	ids   []string
	vecs  [][]float32
	norms []float64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the index with the embeddings of items.
// Items without an embedding are skipped. All indexed embeddings must share one dimension.
func (s *Store) Load(items []models.CatalogItem) error {
	dim := 0
	ids := make([]string, 0, len(items))
	vecs := make([][]float32, 0, len(items))
	norms := make([]float64, 0, len(items))

	for _, item := range items {
		if !item.HasEmbedding() {
			continue
		}
		if dim == 0 {
			dim = len(item.Embedding)
		} else if len(item.Embedding) != dim {
			return fmt.Errorf("item %s: %w: got %d, want %d", item.ID, ErrDimensionMismatch, len(item.Embedding), dim)
		}
		ids = append(ids, item.ID)
		vecs = append(vecs, item.Embedding)
		norms = append(norms, norm(item.Embedding))
	}

	s.dim = dim
	s.ids = ids
	s.vecs = vecs
	s.norms = norms
	return nil
}

// Len returns the number of indexed embeddings.
func (s *Store) Len() int {
	return len(s.ids)
}

// Dimension returns the embedding dimension of the index, 0 when empty.
func (s *Store) Dimension() int {
	return s.dim
}

// Score returns the cosine similarity of query against every indexed embedding, keyed by item ID.
// Zero-norm vectors score 0. An empty index returns an empty map for any query.
func (s *Store) Score(query []float32) (map[string]float64, error) {
	out := make(map[string]float64, len(s.ids))
	if len(s.ids) == 0 {
		return out, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("query: %w: got %d, want %d", ErrDimensionMismatch, len(query), s.dim)
	}

	qn := norm(query)
	for i, vec := range s.vecs {
		out[s.ids[i]] = cosine(query, vec, qn, s.norms[i])
	}
	return out, nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 if either vector is empty, zero-norm, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return cosine(a, b, norm(a), norm(b))
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}
