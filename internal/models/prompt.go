package models

import (
	"sort"
	"strings"
)

// Prompt is one query unit of a production: a position plus descriptive text.
// Prompts are built per planning run and discarded afterwards.
type Prompt struct {
	Arc       int       `json:"arc" yaml:"arc"`
	ArcName   string    `json:"arc_name,omitempty" yaml:"arc_name,omitempty"`
	Sequence  int       `json:"sequence" yaml:"sequence"`
	Text      string    `json:"text" yaml:"text"`
	Embedding []float32 `json:"-" yaml:"-"`

	ExpectedTempo   *float64 `json:"expected_tempo,omitempty" yaml:"expected_tempo,omitempty"`
	ExpectedKey     *string  `json:"expected_key,omitempty" yaml:"expected_key,omitempty"`
	TempoHints      []string `json:"tempo_hints,omitempty" yaml:"tempo_hints,omitempty"`
	InstrumentHints []string `json:"instrument_hints,omitempty" yaml:"instrument_hints,omitempty"`
	VibeHints       []string `json:"vibe_hints,omitempty" yaml:"vibe_hints,omitempty"`
}

// EmbeddingText builds the query text for the prompt within a production theme.
func (p Prompt) EmbeddingText(theme string) string {
	parts := []string{cleanPromptText(p.Text)}
	if p.ArcName != "" {
		parts = append(parts, "Arc: "+p.ArcName)
	}
	if theme != "" {
		parts = append(parts, "Theme: "+theme)
	}
	if len(p.TempoHints) > 0 {
		parts = append(parts, "Tempo: "+strings.Join(p.TempoHints, ", "))
	}
	if len(p.VibeHints) > 0 {
		parts = append(parts, "Vibes: "+strings.Join(p.VibeHints, ", "))
	}
	return strings.Join(parts, " | ")
}

// Arc is a section of a production with its own ordered prompts.
type Arc struct {
	Number  int      `json:"number" yaml:"number"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Prompts []Prompt `json:"prompts" yaml:"prompts"`
}

// ProductionDoc is a parsed prompt document for a new production.
type ProductionDoc struct {
	Title         string `json:"title" yaml:"title"`
	Theme         string `json:"theme,omitempty" yaml:"theme,omitempty"`
	TargetMinutes int    `json:"target_minutes,omitempty" yaml:"target_minutes,omitempty"`
	Arcs          []Arc  `json:"arcs" yaml:"arcs"`
}

// Prompts returns every prompt ordered by arc and sequence.
func (d ProductionDoc) Prompts() []Prompt {
	var out []Prompt
	for _, arc := range d.Arcs {
		out = append(out, arc.Prompts...)
	}
	SortPrompts(out)
	return out
}

// PromptCount returns the number of prompts across all arcs.
func (d ProductionDoc) PromptCount() int {
	n := 0
	for _, arc := range d.Arcs {
		n += len(arc.Prompts)
	}
	return n
}

// SortPrompts orders prompts by arc, then sequence.
func SortPrompts(prompts []Prompt) {
	sort.SliceStable(prompts, func(i, j int) bool {
		if prompts[i].Arc != prompts[j].Arc {
			return prompts[i].Arc < prompts[j].Arc
		}
		return prompts[i].Sequence < prompts[j].Sequence
	})
}
