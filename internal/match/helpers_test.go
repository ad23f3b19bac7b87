package match

import (
	"fmt"
	"math"

	"github.com/raphaelgruber/trackbank/internal/models"
)

const testDim = 4

// axis returns a unit vector along dimension i.
func axis(i int) []float32 {
	v := make([]float32, testDim)
	v[i] = 1
	return v
}

// tilted returns a unit vector whose cosine with axis(i) is sim.
func tilted(i int, sim float64) []float32 {
	v := make([]float32, testDim)
	v[i] = float32(sim)
	v[(i+1)%testDim] = float32(math.Sqrt(1 - sim*sim))
	return v
}

func testItem(id string, emb []float32, duration float64) models.CatalogItem {
	return models.CatalogItem{ID: id, Embedding: emb, Duration: duration}
}

func testPrompt(arc, seq int, emb []float32) models.Prompt {
	return models.Prompt{
		Arc:       arc,
		Sequence:  seq,
		Text:      fmt.Sprintf("prompt %d.%d", arc, seq),
		Embedding: emb,
	}
}

// arcCatalog builds n items aligned with arc's axis, each lasting duration seconds.
func arcCatalog(arc, n int, duration float64) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, n)
	for i := 0; i < n; i++ {
		item := testItem(fmt.Sprintf("a%d-%02d", arc, i), axis(arc-1), duration)
		item.Section = arc
		items = append(items, item)
	}
	return items
}

// arcPrompts builds n prompts for arc, all pointing along the arc's axis.
func arcPrompts(arc, n int) []models.Prompt {
	prompts := make([]models.Prompt, 0, n)
	for i := 1; i <= n; i++ {
		prompts = append(prompts, testPrompt(arc, i, axis(arc-1)))
	}
	return prompts
}

func intPtr(i int) *int { return &i }
