// Package models defines data structures for the trackbank catalog and matching engine.
package models

import (
	"fmt"
	"strings"
	"time"
)

// CatalogItem is one audio clip in the bank.
// Identity and attributes are fixed at import; usage fields change only on commit.
type CatalogItem struct {
	ID        string    `json:"id" yaml:"id"`
	FilePath  string    `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Embedding []float32 `json:"embedding,omitempty" yaml:"embedding,omitempty,flow"`

	// Section is the arc the clip was produced for (1..4), 0 when unset.
	Section  int      `json:"section,omitempty" yaml:"section,omitempty"`
	Tempo    *float64 `json:"tempo,omitempty" yaml:"tempo,omitempty"`
	Key      *string  `json:"key,omitempty" yaml:"key,omitempty"`
	Duration float64  `json:"duration" yaml:"duration"`

	// Descriptive metadata used to build the embedding text.
	PromptText       string   `json:"prompt_text,omitempty" yaml:"prompt_text,omitempty"`
	ArcName          string   `json:"arc_name,omitempty" yaml:"arc_name,omitempty"`
	SourceProduction string   `json:"source_production,omitempty" yaml:"source_production,omitempty"`
	VibeTags         []string `json:"vibe_tags,omitempty" yaml:"vibe_tags,omitempty"`
	MoodKeywords     []string `json:"mood_keywords,omitempty" yaml:"mood_keywords,omitempty"`

	TimesUsed            int        `json:"times_used" yaml:"times_used"`
	LastUsedProductionID *string    `json:"last_used_production_id,omitempty" yaml:"last_used_production_id,omitempty"`
	LastUsedAt           *time.Time `json:"last_used_at,omitempty" yaml:"last_used_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// HasEmbedding reports whether the item can take part in matching at all.
func (i CatalogItem) HasEmbedding() bool {
	return len(i.Embedding) > 0
}

// Usable reports whether the item can be matched and allocated.
// Items without an embedding or a positive duration are excluded outright.
func (i CatalogItem) Usable() bool {
	return i.HasEmbedding() && i.Duration > 0
}

// EmbeddingText builds the text the catalog embedding is generated from.
func (i CatalogItem) EmbeddingText() string {
	var parts []string
	if p := cleanPromptText(i.PromptText); p != "" {
		parts = append(parts, p)
	}
	if i.ArcName != "" {
		parts = append(parts, "Arc: "+i.ArcName)
	}
	if i.SourceProduction != "" {
		parts = append(parts, "Track: "+i.SourceProduction)
	}
	if i.Tempo != nil {
		parts = append(parts, fmt.Sprintf("BPM: %.0f", *i.Tempo))
	}
	if len(i.VibeTags) > 0 {
		parts = append(parts, "Vibes: "+strings.Join(i.VibeTags, ", "))
	}
	if len(i.MoodKeywords) > 0 {
		parts = append(parts, "Mood: "+strings.Join(i.MoodKeywords, ", "))
	}
	if len(parts) == 0 {
		return i.ID
	}
	return strings.Join(parts, " | ")
}

// cleanPromptText strips surrounding whitespace and quotes so equal prompts embed equally.
func cleanPromptText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'“”`)
	return strings.TrimSpace(s)
}
