// Package playlist turns an engine result into a persistent playlist document
// and reads it back for gap analysis and commit.
package playlist

import (
	"math"
	"time"

	"github.com/raphaelgruber/trackbank/internal/match"
	"github.com/raphaelgruber/trackbank/internal/models"
)

// Playlist is the saved outcome of one planning run.
type Playlist struct {
	ProductionID  string    `json:"production_id" yaml:"production_id"`
	Title         string    `json:"title" yaml:"title"`
	Theme         string    `json:"theme,omitempty" yaml:"theme,omitempty"`
	Profile       string    `json:"profile,omitempty" yaml:"profile,omitempty"`
	TargetMinutes int       `json:"target_minutes" yaml:"target_minutes"`
	TargetSeconds float64   `json:"target_seconds" yaml:"target_seconds"`
	TotalSeconds  float64   `json:"total_seconds" yaml:"total_seconds"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`

	Arcs       []Arc              `json:"arcs" yaml:"arcs"`
	Shortfalls []models.Shortfall `json:"shortfalls,omitempty" yaml:"shortfalls,omitempty"`
	Matches    []PromptMatches    `json:"matches" yaml:"matches"`
	Gaps       models.GapReport   `json:"gaps" yaml:"gaps"`
}

// Arc is the ordered selection for one arc.
type Arc struct {
	Number             int     `json:"number" yaml:"number"`
	Name               string  `json:"name,omitempty" yaml:"name,omitempty"`
	TargetSeconds      float64 `json:"target_seconds" yaml:"target_seconds"`
	AccumulatedSeconds float64 `json:"accumulated_seconds" yaml:"accumulated_seconds"`
	Entries            []Entry `json:"entries" yaml:"entries"`
}

// Entry is one selected item.
type Entry struct {
	PromptNumber         int      `json:"prompt_number" yaml:"prompt_number"`
	PromptText           string   `json:"prompt_text" yaml:"prompt_text"`
	ItemID               string   `json:"item_id" yaml:"item_id"`
	FilePath             string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Score                float64  `json:"score" yaml:"score"`
	Similarity           float64  `json:"similarity" yaml:"similarity"`
	Tempo                *float64 `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Key                  *string  `json:"key,omitempty" yaml:"key,omitempty"`
	Duration             float64  `json:"duration" yaml:"duration"`
	TimesUsed            int      `json:"times_used" yaml:"times_used"`
	LastUsedProductionID *string  `json:"last_used_production_id,omitempty" yaml:"last_used_production_id,omitempty"`
}

// PromptMatches keeps the reported candidates of one prompt.
type PromptMatches struct {
	Arc        int          `json:"arc" yaml:"arc"`
	Sequence   int          `json:"sequence" yaml:"sequence"`
	Text       string       `json:"text" yaml:"text"`
	Candidates []MatchEntry `json:"candidates" yaml:"candidates"`
}

// MatchEntry is one ranked candidate with its score breakdown.
type MatchEntry struct {
	ItemID   string                `json:"item_id" yaml:"item_id"`
	Section  int                   `json:"section,omitempty" yaml:"section,omitempty"`
	Tempo    *float64              `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Key      *string               `json:"key,omitempty" yaml:"key,omitempty"`
	Duration float64               `json:"duration" yaml:"duration"`
	Score    models.ScoreBreakdown `json:"score" yaml:"score"`
}

// Meta describes the production a playlist is built for.
type Meta struct {
	ProductionID  string
	Title         string
	Theme         string
	Profile       string
	TargetMinutes int
	CreatedAt     time.Time
}

// Build converts an engine result into a playlist.
func Build(meta Meta, res *match.Result, targetSeconds float64) *Playlist {
	p := &Playlist{
		ProductionID:  meta.ProductionID,
		Title:         meta.Title,
		Theme:         meta.Theme,
		Profile:       meta.Profile,
		TargetMinutes: meta.TargetMinutes,
		TargetSeconds: targetSeconds,
		TotalSeconds:  res.Allocation.TotalSeconds(),
		CreatedAt:     meta.CreatedAt,
		Shortfalls:    res.Allocation.Shortfalls,
		Gaps:          res.Gaps,
		Arcs:          make([]Arc, 0, len(res.Allocation.Arcs)),
		Matches:       make([]PromptMatches, 0, len(res.Matches)),
	}

	arcNames := make(map[int]string)
	for _, m := range res.Matches {
		if m.Prompt.ArcName != "" {
			arcNames[m.Prompt.Arc] = m.Prompt.ArcName
		}
		pm := PromptMatches{
			Arc:        m.Prompt.Arc,
			Sequence:   m.Prompt.Sequence,
			Text:       m.Prompt.Text,
			Candidates: make([]MatchEntry, 0, len(m.Candidates)),
		}
		for _, c := range m.Candidates {
			pm.Candidates = append(pm.Candidates, MatchEntry{
				ItemID:   c.Item.ID,
				Section:  c.Item.Section,
				Tempo:    c.Item.Tempo,
				Key:      c.Item.Key,
				Duration: c.Item.Duration,
				Score:    c.Score,
			})
		}
		p.Matches = append(p.Matches, pm)
	}

	for _, a := range res.Allocation.Arcs {
		arc := Arc{
			Number:             a.Arc,
			Name:               arcNames[a.Arc],
			TargetSeconds:      a.TargetSeconds,
			AccumulatedSeconds: a.AccumulatedSeconds,
			Entries:            make([]Entry, 0, len(a.Selections)),
		}
		for _, sel := range a.Selections {
			item := sel.Candidate.Item
			arc.Entries = append(arc.Entries, Entry{
				PromptNumber:         sel.Prompt.Sequence,
				PromptText:           sel.Prompt.Text,
				ItemID:               item.ID,
				FilePath:             item.FilePath,
				Score:                round3(sel.Candidate.Score.FinalScore),
				Similarity:           round3(sel.Candidate.Score.Similarity),
				Tempo:                item.Tempo,
				Key:                  item.Key,
				Duration:             item.Duration,
				TimesUsed:            item.TimesUsed,
				LastUsedProductionID: item.LastUsedProductionID,
			})
		}
		p.Arcs = append(p.Arcs, arc)
	}
	return p
}

// ItemIDs returns the selected item IDs in playlist order.
func (p *Playlist) ItemIDs() []string {
	var ids []string
	for _, arc := range p.Arcs {
		for _, e := range arc.Entries {
			ids = append(ids, e.ItemID)
		}
	}
	return ids
}

// ItemCount returns the number of selected items.
func (p *Playlist) ItemCount() int {
	n := 0
	for _, arc := range p.Arcs {
		n += len(arc.Entries)
	}
	return n
}

// MatchResults rebuilds the per-prompt candidate lists for gap analysis.
// Only identity and score fields survive the round trip.
func (p *Playlist) MatchResults() []models.MatchResult {
	out := make([]models.MatchResult, 0, len(p.Matches))
	for _, pm := range p.Matches {
		r := models.MatchResult{
			Prompt:     models.Prompt{Arc: pm.Arc, Sequence: pm.Sequence, Text: pm.Text},
			Candidates: make([]models.Candidate, 0, len(pm.Candidates)),
		}
		for _, c := range pm.Candidates {
			r.Candidates = append(r.Candidates, models.Candidate{
				Item: models.CatalogItem{
					ID:       c.ItemID,
					Section:  c.Section,
					Tempo:    c.Tempo,
					Key:      c.Key,
					Duration: c.Duration,
				},
				Score: c.Score,
			})
		}
		out = append(out, r)
	}
	return out
}

// Reanalyze recomputes the gap report against a new threshold.
func (p *Playlist) Reanalyze(threshold float64) models.GapReport {
	return match.AnalyzeGaps(p.MatchResults(), threshold)
}

// Remaining returns prompts that received no selection, in arc/sequence order.
func (p *Playlist) Remaining() []models.GapPrompt {
	used := make(map[[2]int]struct{})
	for _, arc := range p.Arcs {
		for _, e := range arc.Entries {
			used[[2]int{arc.Number, e.PromptNumber}] = struct{}{}
		}
	}
	var out []models.GapPrompt
	for _, pm := range p.Matches {
		if _, ok := used[[2]int{pm.Arc, pm.Sequence}]; ok {
			continue
		}
		out = append(out, models.GapPrompt{Arc: pm.Arc, Sequence: pm.Sequence, Text: pm.Text})
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
