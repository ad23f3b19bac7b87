package playlist

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/trackbank/internal/match"
	"github.com/raphaelgruber/trackbank/internal/models"
	"github.com/raphaelgruber/trackbank/internal/parser"
)

func candidate(id string, dur, sim, final float64) models.Candidate {
	return models.Candidate{
		Item:  models.CatalogItem{ID: id, Duration: dur, Section: 1, Tempo: models.Float64Ptr(90)},
		Score: models.ScoreBreakdown{Similarity: sim, FinalScore: final},
	}
}

func sampleResult() *match.Result {
	p1 := models.Prompt{Arc: 1, ArcName: "Warm Up", Sequence: 1, Text: "soft piano"}
	p2 := models.Prompt{Arc: 1, ArcName: "Warm Up", Sequence: 2, Text: "rain on glass"}
	p3 := models.Prompt{Arc: 2, ArcName: "Deep Focus", Sequence: 1, Text: "steady pulse"}

	matches := []models.MatchResult{
		{Prompt: p1, Candidates: []models.Candidate{candidate("a", 200, 0.9, 0.81234), candidate("b", 180, 0.7, 0.6)}},
		{Prompt: p2, Candidates: []models.Candidate{candidate("c", 150, 0.55, 0.5)}},
		{Prompt: p3},
	}
	alloc := models.Allocation{
		Arcs: []models.ArcAllocation{
			{
				Arc: 1, TargetSeconds: 300, AccumulatedSeconds: 350,
				Selections: []models.Selection{
					{Prompt: p1, Candidate: matches[0].Candidates[0]},
					{Prompt: p2, Candidate: matches[1].Candidates[0]},
				},
			},
			{Arc: 2, TargetSeconds: 300},
		},
		Shortfalls: []models.Shortfall{{Arc: 2, SecondsShort: 300}},
	}
	return &match.Result{Matches: matches, Allocation: alloc, Gaps: match.AnalyzeGaps(matches, 0.6)}
}

func sample() *Playlist {
	return Build(Meta{
		ProductionID:  "prod-1",
		Title:         "Night Study",
		TargetMinutes: 10,
		CreatedAt:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}, sampleResult(), 600)
}

func TestBuild(t *testing.T) {
	p := sample()

	assert.Equal(t, 350.0, p.TotalSeconds)
	assert.Equal(t, 600.0, p.TargetSeconds)
	require.Len(t, p.Arcs, 2)
	assert.Equal(t, "Warm Up", p.Arcs[0].Name)
	assert.Empty(t, p.Arcs[1].Entries)

	first := p.Arcs[0].Entries[0]
	assert.Equal(t, "a", first.ItemID)
	assert.Equal(t, 1, first.PromptNumber)
	assert.Equal(t, 0.812, first.Score)

	assert.Equal(t, []string{"a", "c"}, p.ItemIDs())
	assert.Equal(t, 2, p.ItemCount())
	assert.Len(t, p.Shortfalls, 1)
	assert.Len(t, p.Matches, 3)
	assert.Equal(t, 1, p.Gaps.NoMatchCount)
	assert.Equal(t, 1, p.Gaps.LowQualityCount)
}

func TestReanalyze(t *testing.T) {
	p := sample()

	strict := p.Reanalyze(0.95)
	assert.Equal(t, 1, strict.NoMatchCount)
	assert.Equal(t, 2, strict.LowQualityCount)
	assert.Equal(t, 0, strict.GoodCount)

	lax := p.Reanalyze(0.5)
	assert.Equal(t, 2, lax.GoodCount)
	assert.Equal(t, 1, lax.RecommendedGenerationCount)
}

func TestRemaining(t *testing.T) {
	p := sample()
	rem := p.Remaining()
	require.Len(t, rem, 1)
	assert.Equal(t, 2, rem[0].Arc)
	assert.Equal(t, "steady pulse", rem[0].Text)
}

func TestWriteReadFormats(t *testing.T) {
	for _, name := range []string{"playlist.yaml", "playlist.yml", "playlist.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			want := sample()
			require.NoError(t, Write(path, want))

			got, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, want.ProductionID, got.ProductionID)
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
			assert.Equal(t, want.ItemIDs(), got.ItemIDs())
			assert.Equal(t, want.Reanalyze(0.6), got.Reanalyze(0.6))
			require.NotNil(t, got.Arcs[0].Entries[0].Tempo)
			assert.Equal(t, 90.0, *got.Arcs[0].Entries[0].Tempo)
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.txt")
	assert.ErrorIs(t, Write(path, sample()), ErrUnknownFormat)
	_, err := Read(path)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriteRemaining(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRemaining(&buf, sample()))

	out := buf.String()
	assert.Contains(t, out, "# Night Study - Remaining Prompts")
	assert.Contains(t, out, "**Prompts Remaining:** 1")
	assert.Contains(t, out, "## Arc 2: Deep Focus")
	assert.NotContains(t, out, "soft piano")

	doc, err := parser.ParseProduction(out)
	require.NoError(t, err)
	require.Len(t, doc.Arcs, 1)
	assert.Equal(t, 2, doc.Arcs[0].Number)
	assert.Equal(t, "steady pulse", doc.Arcs[0].Prompts[0].Text)
}

func TestWriteRemainingAllFilled(t *testing.T) {
	p := sample()
	p.Matches = p.Matches[:2]

	var buf bytes.Buffer
	require.NoError(t, WriteRemaining(&buf, p))
	assert.Contains(t, buf.String(), "All prompts have been filled.")
}
